package evaluator

import (
	"context"

	"github.com/muaviaUsmani/maintreminder/internal/config"
	"github.com/muaviaUsmani/maintreminder/internal/item"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/notify"
	"github.com/muaviaUsmani/maintreminder/internal/source"
)

// BuildSource creates the configured tabular source
func BuildSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	return source.New(ctx, source.Options{
		Path:      cfg.Sheet.Path,
		Range:     cfg.Sheet.Range,
		Region:    cfg.SES.Region,
		AccessKey: cfg.SES.AccessKey,
		SecretKey: cfg.SES.SecretKey,
	})
}

// BuildTransport creates the configured notification transport
func BuildTransport(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Transport, error) {
	if cfg.Transport == config.TransportSES {
		ses, err := notify.NewSESTransport(ctx, cfg.Sender, cfg.SES.Region, cfg.SES.AccessKey, cfg.SES.SecretKey, log)
		if err != nil {
			return nil, err
		}
		return ses, nil
	}
	return notify.NewLogTransport(log), nil
}

// NewComposer creates a composer from the configured templates
func NewComposer(cfg *config.Config) *notify.Composer {
	return notify.NewComposer(
		notify.Templates{
			Subject:       cfg.Templates.Subject,
			SectionHeader: cfg.Templates.SectionHeader,
			Separator:     cfg.Templates.Separator,
			Footer:        cfg.Templates.Footer,
		},
		item.Labels{
			Today:  cfg.Templates.DueToday,
			Future: cfg.Templates.DueFuture,
			Past:   cfg.Templates.DuePast,
		},
	)
}
