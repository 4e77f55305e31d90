package feed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/config"
	"github.com/itsib/0x-swap-api/internal/metrics"
	"github.com/itsib/0x-swap-api/internal/types"
)

const publishTimeout = 2 * time.Second

// Event: одна отданная котировка (quote или price).
type Event struct {
	Endpoint   string
	SellToken  string
	BuyToken   string
	SellAmount string
	BuyAmount  string
	Price      string
	Gas        string
	Taker      string
	Sources    []string
	TsMs       int64
}

// EventFromPrice собирает событие из ответа; в sources попадают только
// источники с ненулевой долей.
func EventFromPrice(endpoint string, r *types.PriceResponse, taker string, now time.Time) Event {
	ev := Event{
		Endpoint:   endpoint,
		SellToken:  strings.ToLower(r.SellTokenAddress.Hex()),
		BuyToken:   strings.ToLower(r.BuyTokenAddress.Hex()),
		SellAmount: r.SellAmount.String(),
		BuyAmount:  r.BuyAmount.String(),
		Price:      r.Price.String(),
		Gas:        r.Gas.String(),
		Taker:      taker,
		TsMs:       now.UnixMilli(),
	}
	for _, s := range r.Sources {
		if s.Proportion.IsPositive() {
			ev.Sources = append(ev.Sources, s.Name)
		}
	}
	return ev
}

func (e Event) pair() string { return e.SellToken + "/" + e.BuyToken }

// Publisher пишет котировки в Redis Stream и ведёт ZSET активных пар.
// nil-Publisher ничего не делает: фид выключен, если Redis не настроен.
type Publisher struct {
	rdb    *redis.Client
	log    *zap.Logger
	stream string
	active string
	maxLen int64
}

func NewPublisher(cfg *config.Config, log *zap.Logger) *Publisher {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	return &Publisher{
		rdb:    rdb,
		log:    log,
		stream: cfg.Redis.Stream,
		active: cfg.Redis.ActiveKey,
		maxLen: cfg.Redis.MaxLen,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p == nil {
		return nil
	}
	// XADD с приблизительным MAXLEN, чтобы стрим не рос бесконечно
	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"endpoint":    ev.Endpoint,
			"sell_token":  ev.SellToken,
			"buy_token":   ev.BuyToken,
			"sell_amount": ev.SellAmount,
			"buy_amount":  ev.BuyAmount,
			"price":       ev.Price,
			"gas":         ev.Gas,
			"taker":       ev.Taker,
			"sources":     strings.Join(ev.Sources, ","),
			"ts_ms":       strconv.FormatInt(ev.TsMs, 10),
		},
	}).Err(); err != nil {
		return err
	}
	// индекс «активных» пар: score = время последней котировки
	return p.rdb.ZAdd(ctx, p.active, redis.Z{
		Score: float64(ev.TsMs), Member: ev.pair(),
	}).Err()
}

// PublishAsync публикует в фоне; ошибка только логируется и считается в метриках.
func (p *Publisher) PublishAsync(ev Event) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, ev); err != nil {
			metrics.FeedPublishErrors.Inc()
			p.log.Warn("feed: не удалось опубликовать котировку", zap.String("pair", ev.pair()), zap.Error(err))
		}
	}()
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}
