package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arcadia-exchange/arcadia-options/internal/metrics"
	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

// SettlementParams 结算参数
type SettlementParams struct {
	MaxRetries              int             // 乐观锁冲突最大重试次数
	RetryBackoff            time.Duration   // 重试退避
	ForcedMoveBps           int64           // 强制结果时结算价偏移 (基点)
	DefaultProfitPercentage decimal.Decimal // 无匹配期限配置时的收益率
}

// SettlementResult 结算结果
type SettlementResult struct {
	Trade  *model.OptionTrade
	IsWin  bool
	Profit decimal.Decimal // 盈亏 (赢为正，输为负)
}

// SettlementService 结算服务接口
type SettlementService interface {
	// SettleTrade 结算指定交易
	// 幂等: 已处于终态的交易直接返回当前结果, 不产生任何写入
	SettleTrade(ctx context.Context, tradeID string) (*SettlementResult, error)

	// SettleExpiredTrade 结算到期交易 (后台任务入口)
	// 交易已处于终态视为成功
	SettleExpiredTrade(ctx context.Context, tradeID string) error
}

// settlementService 结算服务实现
type settlementService struct {
	tradeRepo   repository.TradeRepository
	balanceRepo repository.BalanceRepository
	txRepo      repository.TransactionRepository
	policyRepo  repository.PolicyRepository
	prices      PriceProvider
	settings    OptionSettingsProvider
	publisher   SettlementEventPublisher
	params      SettlementParams
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	tradeRepo repository.TradeRepository,
	balanceRepo repository.BalanceRepository,
	txRepo repository.TransactionRepository,
	policyRepo repository.PolicyRepository,
	prices PriceProvider,
	settings OptionSettingsProvider,
	publisher SettlementEventPublisher,
	params SettlementParams,
) SettlementService {
	return &settlementService{
		tradeRepo:   tradeRepo,
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		policyRepo:  policyRepo,
		prices:      prices,
		settings:    settings,
		publisher:   publisher,
		params:      params,
	}
}

// SettleTrade 结算指定交易
func (s *settlementService) SettleTrade(ctx context.Context, tradeID string) (*SettlementResult, error) {
	// CAS 冲突说明有并发结算或取消在竞争同一笔交易;
	// 重新读取状态后重试, 终态则走幂等返回
	for attempt := 0; attempt <= s.params.MaxRetries; attempt++ {
		result, err := s.settleOnce(ctx, tradeID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return nil, err
		}

		metrics.SettlementConflicts.Inc()
		logger.Warn("结算乐观锁冲突, 准备重试",
			"trade_id", tradeID,
			"attempt", attempt+1)

		select {
		case <-ctx.Done():
			return nil, errs.Wrap(errs.ErrTimeout, ctx.Err())
		case <-time.After(s.params.RetryBackoff):
		}
	}

	return nil, errs.ErrSettlementConflict.WithDetail("trade_id", tradeID)
}

// settleOnce 执行一轮结算
// CAS 未命中时返回 repository.ErrOptimisticLock, 由调用方决定重试
func (s *settlementService) settleOnce(ctx context.Context, tradeID string) (*SettlementResult, error) {
	start := time.Now()

	trade, err := s.tradeRepo.GetByTradeID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			return nil, errs.ErrTradeNotFound
		}
		return nil, errs.Wrap(errs.ErrInternal, err)
	}

	// 幂等短路: 非待结算状态直接返回已有结果
	if trade.Status.IsTerminal() {
		return &SettlementResult{
			Trade:  trade,
			IsWin:  trade.IsWin,
			Profit: trade.Profit,
		}, nil
	}

	exitPrice, err := s.prices.GetLastPrice(ctx, trade.Symbol)
	if err != nil {
		metrics.RecordPriceLookupFailure(trade.Symbol)
		return nil, errs.Wrap(errs.ErrPriceUnavailable, err)
	}

	mode, err := s.controlMode(ctx, trade.UserID)
	if err != nil {
		return nil, err
	}

	isWin, storedExit := s.resolveOutcome(trade, exitPrice, mode)
	profitAmt := s.profitAmount(trade)

	// 盈亏恒为收益金额, 赢为正输为负; 本金的没收走余额变动, 不计入盈亏
	profit := profitAmt
	if !isWin {
		profit = profitAmt.Neg()
	}

	now := time.Now().UnixMilli()
	txRecord := s.buildTransaction(trade, isWin, profitAmt, now)

	// 状态翻转、余额变动、流水写入三者同生共死;
	// CAS 必须是事务内第一笔写入, 确保并发结算至多一方成功
	err = s.tradeRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.tradeRepo.MarkCompleted(txCtx, tradeID, storedExit, profit, isWin, now); err != nil {
			return err
		}

		if isWin {
			payout := trade.Amount.Add(profitAmt)
			if err := s.balanceRepo.SettleWin(txCtx, trade.UserID, trade.Symbol, trade.Amount, payout); err != nil {
				return s.mapBalanceError(err, trade, "settle_win")
			}
		} else {
			if err := s.balanceRepo.ForfeitLocked(txCtx, trade.UserID, trade.Symbol, trade.Amount); err != nil {
				return s.mapBalanceError(err, trade, "forfeit_locked")
			}
		}

		// 流水写入失败 (含 reference_id 冲突) 必须回滚整个结算
		if err := s.txRepo.Create(txCtx, txRecord); err != nil {
			if errors.Is(err, repository.ErrDuplicateTransaction) {
				metrics.RecordDataIntegrityCritical("duplicate_transaction", "settlement")
				logger.Error("结算流水 reference_id 冲突",
					"trade_id", tradeID,
					"user_id", trade.UserID)
				return errs.ErrDuplicateTransaction
			}
			return errs.Wrap(errs.ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trade.Status = model.TradeStatusCompleted
	trade.ExitPrice = storedExit
	trade.Profit = profit
	trade.IsWin = isWin
	trade.SettledAt = now
	trade.UpdatedAt = now

	outcome := "loss"
	if isWin {
		outcome = "win"
	}
	metrics.RecordSettlement(outcome, start)
	metrics.RecordTransaction(txRecord.Type.String())
	metrics.RecordBalanceOperation(outcome, trade.Symbol)

	if err := s.publisher.PublishSettled(trade); err != nil {
		logger.Warn("发布结算事件失败",
			"trade_id", tradeID,
			"error", err)
	}

	logger.Info("交易结算完成",
		"trade_id", tradeID,
		"user_id", trade.UserID,
		"is_win", isWin,
		"profit", profit.String(),
		"exit_price", storedExit.String())

	return &SettlementResult{
		Trade:  trade,
		IsWin:  isWin,
		Profit: profit,
	}, nil
}

// controlMode 获取用户结果控制模式
// 无生效策略等价于 NORMAL
func (s *settlementService) controlMode(ctx context.Context, userID string) (model.ControlMode, error) {
	policy, err := s.policyRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPolicyNotFound) {
			return model.ControlModeNormal, nil
		}
		return model.ControlModeNormal, errs.Wrap(errs.ErrInternal, err)
	}
	return policy.Mode, nil
}

// resolveOutcome 判定输赢并确定落库的结算价
// 正常模式按市场价严格比较, 价格持平一律判输;
// 强制模式以入场价为基准做基点偏移, 保证落库价格与判定结果自洽
func (s *settlementService) resolveOutcome(trade *model.OptionTrade, marketExit decimal.Decimal, mode model.ControlMode) (bool, decimal.Decimal) {
	switch mode {
	case model.ControlModeWin:
		return true, s.forcedExitPrice(trade, true)
	case model.ControlModeLose:
		return false, s.forcedExitPrice(trade, false)
	}

	var isWin bool
	switch trade.Direction {
	case model.TradeDirectionUp:
		isWin = marketExit.GreaterThan(trade.EntryPrice)
	case model.TradeDirectionDown:
		isWin = marketExit.LessThan(trade.EntryPrice)
	}
	return isWin, marketExit
}

// forcedExitPrice 计算强制结果的结算价
func (s *settlementService) forcedExitPrice(trade *model.OptionTrade, win bool) decimal.Decimal {
	move := trade.EntryPrice.
		Mul(decimal.NewFromInt(s.params.ForcedMoveBps)).
		Div(decimal.NewFromInt(10000))

	// 看涨赢或看跌输, 结算价须高于入场价; 反之须低于入场价
	up := (trade.Direction == model.TradeDirectionUp) == win
	if up {
		return trade.EntryPrice.Add(move)
	}
	return trade.EntryPrice.Sub(move)
}

// profitAmount 计算收益金额
// 按期限精确匹配收益率配置, 无匹配时使用默认收益率
func (s *settlementService) profitAmount(trade *model.OptionTrade) decimal.Decimal {
	pct, ok := s.settings.ProfitPercentage(trade.Duration)
	if !ok {
		pct = s.params.DefaultProfitPercentage
	}
	return trade.Amount.Mul(pct).Div(decimal.NewFromInt(100))
}

// buildTransaction 构造结算流水
// reference_id 取 trade_id, 唯一索引保证每笔交易至多一条结算流水;
// 金额恒为收益金额的绝对值, 方向由流水类型表达
func (s *settlementService) buildTransaction(trade *model.OptionTrade, isWin bool, profitAmt decimal.Decimal, now int64) *model.Transaction {
	tx := &model.Transaction{
		UserID:      trade.UserID,
		Symbol:      trade.Symbol,
		ReferenceID: trade.TradeID,
		Amount:      profitAmt,
		CreatedAt:   now,
	}

	if isWin {
		tx.Type = model.TransactionTypeTradeWin
		tx.Remark = "期权盈利入账"
	} else {
		tx.Type = model.TransactionTypeTradeLoss
		tx.Remark = "期权亏损扣除"
	}
	return tx
}

// mapBalanceError 翻译结算阶段的余额错误
// 锁定余额少于交易本金意味着账本不变量已被破坏, 这是致命错误, 不可重试
func (s *settlementService) mapBalanceError(err error, trade *model.OptionTrade, op string) error {
	if errors.Is(err, repository.ErrInsufficientLocked) {
		metrics.RecordDataIntegrityCritical("negative_balance", op)
		logger.Error("结算时锁定余额不足",
			"trade_id", trade.TradeID,
			"user_id", trade.UserID,
			"symbol", trade.Symbol,
			"amount", trade.Amount.String(),
			"operation", op)
		return errs.ErrNegativeBalance
	}
	return errs.Wrap(errs.ErrInternal, err)
}

// SettleExpiredTrade 结算到期交易
func (s *settlementService) SettleExpiredTrade(ctx context.Context, tradeID string) error {
	_, err := s.SettleTrade(ctx, tradeID)
	return err
}
