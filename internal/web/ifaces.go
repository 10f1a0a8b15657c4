package web

import (
	"context"

	"github.com/Divoolej/prtrade/internal/models"
	"github.com/Divoolej/prtrade/internal/service"
)

// CacheSyncService описывает операции синхронизации кеша, нужные HTTP-слою.
type CacheSyncService interface {
	Apply(ctx context.Context, event models.WebhookEvent) error
}

// TradeService описывает операции trade-команд, нужные HTTP-слою.
type TradeService interface {
	ResolveCommand(ctx context.Context, text string) (*service.TradeResult, error)
}
