package main

import (
	"context"
	"time"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/bot"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/config"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/logger"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

const dateLayout = "2006-01-02"

// runExpiryReminders periodically notifies users about coupons that expire
// within the configured window. Runs until ctx is canceled.
func runExpiryReminders(ctx context.Context, cfg *config.Config, db *storage.DB, transport bot.Transport, log *logger.Logger) {
	ticker := time.NewTicker(cfg.ExpiryReminderInterval)
	defer ticker.Stop()

	log.WithField("interval", cfg.ExpiryReminderInterval.String()).
		WithField("days", cfg.ExpiryReminderDays).
		Info("Expiry reminder loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Expiry reminder loop stopped")
			return
		case <-ticker.C:
			sendExpiryReminders(ctx, cfg, db, transport, log)
		}
	}
}

// sendExpiryReminders runs one reminder pass: collects expiring coupons and
// sends one message per owner.
func sendExpiryReminders(ctx context.Context, cfg *config.Config, db *storage.DB, transport bot.Transport, log *logger.Logger) {
	now := time.Now()
	today := now.Format(dateLayout)
	cutoff := now.AddDate(0, 0, cfg.ExpiryReminderDays).Format(dateLayout)

	coupons, err := db.GetExpiringCoupons(ctx, today, cutoff)
	if err != nil {
		log.WithError(err).Error("Expiry reminder: loading coupons failed")
		return
	}
	if len(coupons) == 0 {
		return
	}

	// Rows come back ordered by owner, so one message batches each user's coupons
	byOwner := make(map[string][]*storage.Coupon)
	var owners []string
	for _, c := range coupons {
		if _, seen := byOwner[c.OwnerID]; !seen {
			owners = append(owners, c.OwnerID)
		}
		byOwner[c.OwnerID] = append(byOwner[c.OwnerID], c)
	}

	sent := 0
	for _, owner := range owners {
		text := wamsg.NewExpiryReminder(byOwner[owner])
		if err := transport.SendText(ctx, owner, text, ""); err != nil {
			log.WithError(err).WithField("owner", owner).Warn("Expiry reminder: send failed")
			continue
		}
		sent++
	}

	log.WithField("coupons", len(coupons)).
		WithField("users", len(owners)).
		WithField("sent", sent).
		Info("Expiry reminder pass completed")
}
