package storage

import (
	"time"

	"market_watcher/internal/domain"

	"github.com/shopspring/decimal"
)

// TradeRecord is the persisted form of a Trade. Only the price, sequence
// and time of each leg's ticker are kept.
type TradeRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ProductID string    `gorm:"size:32;index"`
	OpenedAt  time.Time `gorm:"index"`
	MatchedAt *time.Time

	BuySequence uint64
	BuyPrice    decimal.Decimal `gorm:"type:text"`
	BuyTime     time.Time
	BuyCost     decimal.Decimal `gorm:"type:text"`
	BuySize     decimal.Decimal `gorm:"type:text"`

	SellSequence *uint64
	SellPrice    decimal.NullDecimal `gorm:"type:text"`
	SellTime     *time.Time
	SellCost     decimal.NullDecimal `gorm:"type:text"`
	SellSize     decimal.NullDecimal `gorm:"type:text"`
	PnL          decimal.NullDecimal `gorm:"type:text"`
}

func (TradeRecord) TableName() string { return "trades" }

// StatRecord is the persisted form of a Stat.
type StatRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`

	Spread  decimal.NullDecimal `gorm:"type:text"`
	BestBid decimal.NullDecimal `gorm:"type:text"`
	BestAsk decimal.NullDecimal `gorm:"type:text"`

	Sequence   *uint64
	TickerTime *time.Time
	Price      decimal.NullDecimal `gorm:"type:text"`
	EMAShort   decimal.NullDecimal `gorm:"type:text"`
	EMALong    decimal.NullDecimal `gorm:"type:text"`
	DiffEMA    decimal.NullDecimal `gorm:"type:text"`
	DiffEMARoc decimal.NullDecimal `gorm:"type:text"`
}

func (StatRecord) TableName() string { return "stats" }

func nullDec(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func newTradeRecord(t domain.Trade) TradeRecord {
	rec := TradeRecord{
		ID:          t.ID,
		ProductID:   t.BuyTicker.ProductID,
		OpenedAt:    t.OpenedAt,
		MatchedAt:   t.MatchedAt,
		BuySequence: t.BuyTicker.Sequence,
		BuyPrice:    t.BuyTicker.Price,
		BuyTime:     t.BuyTicker.Time,
		BuyCost:     t.BuyCost,
		BuySize:     t.BuySize,
		SellCost:    nullDec(t.SellCost),
		SellSize:    nullDec(t.SellSize),
	}
	if t.SellTicker != nil {
		seq, ts := t.SellTicker.Sequence, t.SellTicker.Time
		rec.SellSequence = &seq
		rec.SellTime = &ts
		rec.SellPrice = decimal.NewNullDecimal(t.SellTicker.Price)
	}
	if pnl, ok := t.PnL(); ok {
		rec.PnL = decimal.NewNullDecimal(pnl)
	}
	return rec
}

func (r TradeRecord) toDomain() domain.Trade {
	t := domain.Trade{
		ID:       r.ID,
		OpenedAt: r.OpenedAt,
		BuyTicker: domain.Ticker{
			Sequence:  r.BuySequence,
			ProductID: r.ProductID,
			Price:     r.BuyPrice,
			Time:      r.BuyTime,
		},
		BuyCost:   r.BuyCost,
		BuySize:   r.BuySize,
		SellCost:  decPtr(r.SellCost),
		SellSize:  decPtr(r.SellSize),
		MatchedAt: r.MatchedAt,
	}
	if r.SellSequence != nil {
		sell := domain.Ticker{
			Sequence:  *r.SellSequence,
			ProductID: r.ProductID,
			Price:     r.SellPrice.Decimal,
		}
		if r.SellTime != nil {
			sell.Time = *r.SellTime
		}
		t.SellTicker = &sell
	}
	return t
}

func newStatRecord(s domain.Stat) StatRecord {
	return StatRecord{
		CreatedAt:  s.CreatedAt,
		Spread:     nullDec(s.Spread),
		BestBid:    nullDec(s.BestBid),
		BestAsk:    nullDec(s.BestAsk),
		Sequence:   s.Sequence,
		TickerTime: s.TickerTime,
		Price:      nullDec(s.Price),
		EMAShort:   nullDec(s.EMAShort),
		EMALong:    nullDec(s.EMALong),
		DiffEMA:    nullDec(s.DiffEMA),
		DiffEMARoc: nullDec(s.DiffEMARoc),
	}
}

func (r StatRecord) toDomain() domain.Stat {
	return domain.Stat{
		CreatedAt:  r.CreatedAt,
		Spread:     decPtr(r.Spread),
		BestBid:    decPtr(r.BestBid),
		BestAsk:    decPtr(r.BestAsk),
		Sequence:   r.Sequence,
		TickerTime: r.TickerTime,
		Price:      decPtr(r.Price),
		EMAShort:   decPtr(r.EMAShort),
		EMALong:    decPtr(r.EMALong),
		DiffEMA:    decPtr(r.DiffEMA),
		DiffEMARoc: decPtr(r.DiffEMARoc),
	}
}
