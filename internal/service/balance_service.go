package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arcadia-exchange/arcadia-options/internal/metrics"
	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

// BalanceService 余额服务接口
type BalanceService interface {
	// GetBalance 查询余额
	// 无记录时返回零值余额, 不落库
	GetBalance(ctx context.Context, userID, symbol string) (*model.Balance, error)

	// ListBalances 查询用户所有余额
	ListBalances(ctx context.Context, userID string) ([]*model.Balance, error)

	// Deposit 充值
	Deposit(ctx context.Context, userID, symbol string, amount decimal.Decimal) (*model.Transaction, error)

	// Withdraw 提现
	Withdraw(ctx context.Context, userID, symbol string, amount decimal.Decimal) (*model.Transaction, error)

	// ListTransactions 查询用户资金流水
	ListTransactions(ctx context.Context, userID string, filter *repository.TransactionFilter, page *repository.Pagination) ([]*model.Transaction, error)
}

// balanceService 余额服务实现
type balanceService struct {
	balanceRepo repository.BalanceRepository
	txRepo      repository.TransactionRepository
	symbols     SymbolConfigProvider
	publisher   BalanceEventPublisher
}

// NewBalanceService 创建余额服务
func NewBalanceService(
	balanceRepo repository.BalanceRepository,
	txRepo repository.TransactionRepository,
	symbols SymbolConfigProvider,
	publisher BalanceEventPublisher,
) BalanceService {
	return &balanceService{
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		symbols:     symbols,
		publisher:   publisher,
	}
}

// GetBalance 查询余额
func (s *balanceService) GetBalance(ctx context.Context, userID, symbol string) (*model.Balance, error) {
	if userID == "" || symbol == "" {
		return nil, errs.ErrInvalidRequest.WithMessage("用户 ID 和交易对不能为空")
	}

	balance, err := s.balanceRepo.GetByUserSymbol(ctx, userID, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			return &model.Balance{
				UserID:    userID,
				Symbol:    symbol,
				Available: decimal.Zero,
				Locked:    decimal.Zero,
			}, nil
		}
		return nil, errs.Wrap(errs.ErrInternal, err)
	}
	return balance, nil
}

// ListBalances 查询用户所有余额
func (s *balanceService) ListBalances(ctx context.Context, userID string) ([]*model.Balance, error) {
	if userID == "" {
		return nil, errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}

	balances, err := s.balanceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInternal, err)
	}
	return balances, nil
}

// Deposit 充值
func (s *balanceService) Deposit(ctx context.Context, userID, symbol string, amount decimal.Decimal) (*model.Transaction, error) {
	if err := s.validateFunding(userID, symbol, amount); err != nil {
		return nil, err
	}

	txRecord := &model.Transaction{
		UserID:      userID,
		Symbol:      symbol,
		Type:        model.TransactionTypeDeposit,
		Amount:      amount,
		ReferenceID: fmt.Sprintf("D-%s", uuid.NewString()),
		Remark:      "充值",
		CreatedAt:   time.Now().UnixMilli(),
	}

	err := s.balanceRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.balanceRepo.Credit(txCtx, userID, symbol, amount); err != nil {
			return errs.Wrap(errs.ErrInternal, err)
		}
		if err := s.txRepo.Create(txCtx, txRecord); err != nil {
			return errs.Wrap(errs.ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBalanceOperation("deposit", symbol)
	metrics.RecordTransaction(txRecord.Type.String())

	if err := s.publisher.PublishChange(userID, symbol, "deposit", amount.String(), txRecord.ReferenceID); err != nil {
		logger.Warn("发布充值事件失败",
			"user_id", userID,
			"error", err)
	}

	return txRecord, nil
}

// Withdraw 提现
// 仅可用余额可提现, 锁定余额不参与
func (s *balanceService) Withdraw(ctx context.Context, userID, symbol string, amount decimal.Decimal) (*model.Transaction, error) {
	if err := s.validateFunding(userID, symbol, amount); err != nil {
		return nil, err
	}

	txRecord := &model.Transaction{
		UserID:      userID,
		Symbol:      symbol,
		Type:        model.TransactionTypeWithdraw,
		Amount:      amount,
		ReferenceID: fmt.Sprintf("W-%s", uuid.NewString()),
		Remark:      "提现",
		CreatedAt:   time.Now().UnixMilli(),
	}

	err := s.balanceRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.balanceRepo.Debit(txCtx, userID, symbol, amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return errs.ErrInsufficientBalance.WithDetail("symbol", symbol)
			}
			return errs.Wrap(errs.ErrInternal, err)
		}
		if err := s.txRepo.Create(txCtx, txRecord); err != nil {
			return errs.Wrap(errs.ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBalanceOperation("withdraw", symbol)
	metrics.RecordTransaction(txRecord.Type.String())

	if err := s.publisher.PublishChange(userID, symbol, "withdraw", amount.String(), txRecord.ReferenceID); err != nil {
		logger.Warn("发布提现事件失败",
			"user_id", userID,
			"error", err)
	}

	return txRecord, nil
}

// validateFunding 校验出入金请求
func (s *balanceService) validateFunding(userID, symbol string, amount decimal.Decimal) error {
	if userID == "" {
		return errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}
	if _, ok := s.symbols.GetSymbol(symbol); !ok {
		return errs.ErrInvalidSymbol.WithDetail("symbol", symbol)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return errs.ErrInvalidAmount.WithMessage("金额必须为正数")
	}
	return nil
}

// ListTransactions 查询用户资金流水
func (s *balanceService) ListTransactions(ctx context.Context, userID string, filter *repository.TransactionFilter, page *repository.Pagination) ([]*model.Transaction, error) {
	if userID == "" {
		return nil, errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}

	txs, err := s.txRepo.ListByUser(ctx, userID, filter, page)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInternal, err)
	}
	return txs, nil
}
