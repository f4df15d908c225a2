package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arcadia-exchange/arcadia-options/internal/metrics"
	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

// CreateTradeRequest 创建期权交易请求
type CreateTradeRequest struct {
	UserID    string
	Symbol    string
	Direction model.TradeDirection
	Amount    decimal.Decimal
	Duration  int // 期限 (秒)
}

// TradeService 期权交易服务接口
type TradeService interface {
	// CreateTrade 创建期权交易
	// 锁定下注金额与插入交易记录在同一事务中完成
	CreateTrade(ctx context.Context, req *CreateTradeRequest) (*model.OptionTrade, error)

	// CancelTrade 取消期权交易
	// 仅限本人、待结算且未到期的交易; 取消后锁定金额原路返还
	CancelTrade(ctx context.Context, userID, tradeID string) (*model.OptionTrade, error)

	// GetTrade 查询交易详情 (仅限本人)
	GetTrade(ctx context.Context, userID, tradeID string) (*model.OptionTrade, error)

	// ListTrades 查询用户交易列表
	ListTrades(ctx context.Context, userID string, filter *repository.TradeFilter, page *repository.Pagination) ([]*model.OptionTrade, error)
}

// tradeService 期权交易服务实现
type tradeService struct {
	tradeRepo   repository.TradeRepository
	balanceRepo repository.BalanceRepository
	prices      PriceProvider
	symbols     SymbolConfigProvider
	idGen       IDGenerator
	publisher   TradeEventPublisher
}

// NewTradeService 创建期权交易服务
func NewTradeService(
	tradeRepo repository.TradeRepository,
	balanceRepo repository.BalanceRepository,
	prices PriceProvider,
	symbols SymbolConfigProvider,
	idGen IDGenerator,
	publisher TradeEventPublisher,
) TradeService {
	return &tradeService{
		tradeRepo:   tradeRepo,
		balanceRepo: balanceRepo,
		prices:      prices,
		symbols:     symbols,
		idGen:       idGen,
		publisher:   publisher,
	}
}

// CreateTrade 创建期权交易
func (s *tradeService) CreateTrade(ctx context.Context, req *CreateTradeRequest) (*model.OptionTrade, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	// 入场价取下单时刻的最新成交价; 行情缺失直接拒单
	entryPrice, err := s.prices.GetLastPrice(ctx, req.Symbol)
	if err != nil {
		metrics.RecordPriceLookupFailure(req.Symbol)
		return nil, errs.Wrap(errs.ErrPriceUnavailable, err)
	}

	now := time.Now().UnixMilli()
	trade := &model.OptionTrade{
		TradeID:    fmt.Sprintf("T%d", s.idGen.Generate()),
		UserID:     req.UserID,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Amount:     req.Amount,
		EntryPrice: entryPrice,
		Duration:   req.Duration,
		Status:     model.TradeStatusPending,
		ExpiresAt:  now + int64(req.Duration)*1000,
	}

	// 锁定下注金额与插入交易记录必须同时生效或同时失败
	err = s.tradeRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.balanceRepo.Lock(txCtx, req.UserID, req.Symbol, req.Amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return errs.ErrInsufficientBalance.WithDetail("symbol", req.Symbol)
			}
			return errs.Wrap(errs.ErrInternal, err)
		}
		if err := s.tradeRepo.Create(txCtx, trade); err != nil {
			return errs.Wrap(errs.ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTrade("created", trade.Symbol, trade.Direction.String())
	metrics.RecordBalanceOperation("lock", trade.Symbol)

	if err := s.publisher.PublishCreated(trade); err != nil {
		logger.Warn("发布交易创建事件失败",
			"trade_id", trade.TradeID,
			"error", err)
	}

	return trade, nil
}

// validateCreate 校验创建请求
func (s *tradeService) validateCreate(req *CreateTradeRequest) error {
	if req.UserID == "" {
		return errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}
	if !req.Direction.IsValid() {
		return errs.ErrInvalidDirection
	}
	if req.Duration <= 0 {
		return errs.ErrInvalidDuration
	}

	rule, ok := s.symbols.GetSymbol(req.Symbol)
	if !ok {
		return errs.ErrInvalidSymbol.WithDetail("symbol", req.Symbol)
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return errs.ErrInvalidAmount.WithMessage("金额必须为正数")
	}
	if req.Amount.LessThan(rule.MinAmount) {
		return errs.ErrInvalidAmount.WithMessagef("金额低于最小下注额 %s", rule.MinAmount)
	}
	if rule.MaxAmount.GreaterThan(decimal.Zero) && req.Amount.GreaterThan(rule.MaxAmount) {
		return errs.ErrInvalidAmount.WithMessagef("金额超过最大下注额 %s", rule.MaxAmount)
	}
	return nil
}

// CancelTrade 取消期权交易
func (s *tradeService) CancelTrade(ctx context.Context, userID, tradeID string) (*model.OptionTrade, error) {
	trade, err := s.tradeRepo.GetByTradeID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			return nil, errs.ErrTradeNotFound
		}
		return nil, errs.Wrap(errs.ErrInternal, err)
	}

	// 他人的交易按不存在处理, 不泄露存在性
	if trade.UserID != userID {
		return nil, errs.ErrTradeNotFound
	}

	now := time.Now().UnixMilli()
	if trade.Status != model.TradeStatusPending || trade.IsExpired(now) {
		return nil, errs.ErrTradeNotCancellable
	}

	err = s.tradeRepo.Transaction(ctx, func(txCtx context.Context) error {
		// CAS 保证与并发结算互斥: 到期或已结算则取消失败
		if err := s.tradeRepo.MarkCancelled(txCtx, tradeID, now); err != nil {
			if errors.Is(err, repository.ErrOptimisticLock) {
				return errs.ErrTradeNotCancellable
			}
			return errs.Wrap(errs.ErrInternal, err)
		}

		if err := s.balanceRepo.Unlock(txCtx, userID, trade.Symbol, trade.Amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientLocked) {
				// 锁定余额少于交易本金, 说明账本已被破坏
				metrics.RecordDataIntegrityCritical("negative_balance", "cancel_unlock")
				logger.Error("取消交易时锁定余额不足",
					"trade_id", tradeID,
					"user_id", userID,
					"amount", trade.Amount.String())
				return errs.ErrNegativeBalance
			}
			return errs.Wrap(errs.ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trade.Status = model.TradeStatusCancelled
	trade.UpdatedAt = now

	metrics.RecordTrade("cancelled", trade.Symbol, trade.Direction.String())
	metrics.RecordBalanceOperation("unlock", trade.Symbol)

	if err := s.publisher.PublishCancelled(trade); err != nil {
		logger.Warn("发布交易取消事件失败",
			"trade_id", tradeID,
			"error", err)
	}

	return trade, nil
}

// GetTrade 查询交易详情
func (s *tradeService) GetTrade(ctx context.Context, userID, tradeID string) (*model.OptionTrade, error) {
	trade, err := s.tradeRepo.GetByTradeID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			return nil, errs.ErrTradeNotFound
		}
		return nil, errs.Wrap(errs.ErrInternal, err)
	}

	if trade.UserID != userID {
		return nil, errs.ErrTradeNotFound
	}
	return trade, nil
}

// ListTrades 查询用户交易列表
func (s *tradeService) ListTrades(ctx context.Context, userID string, filter *repository.TradeFilter, page *repository.Pagination) ([]*model.OptionTrade, error) {
	if userID == "" {
		return nil, errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}

	trades, err := s.tradeRepo.ListByUser(ctx, userID, filter, page)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInternal, err)
	}
	return trades, nil
}
