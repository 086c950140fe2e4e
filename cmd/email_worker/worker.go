package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-ecommerce/pkg/mailer/templates"
)

const sendTimeout = 15 * time.Second

// errPermanent marks a job that will never succeed and must not be requeued.
var errPermanent = errors.New("permanent failure")

type worker struct {
	sender mailer.Sender
	users  repo.UserRepository // optional; receives a notification per delivered job
	geo    mailtpl.GeoResolver
	logger *logrus.Logger
}

// handle renders and sends one queued job. A returned error wrapping
// errPermanent means the message should be dropped; any other error is retryable.
func (w *worker) handle(ctx context.Context, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: bad message: %v", errPermanent, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: job without recipient", errPermanent)
	}

	helpers.EnsureRecipientAndEmail(&job)
	if w.geo != nil {
		helpers.LocalizeTimesIfPossible(ctx, w.geo, job.Data)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", errPermanent, job.Template, err)
		}
		subject, text, html = s, t, h
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", errPermanent)
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	w.notify(ctx, job)
	return nil
}

func (w *worker) notify(ctx context.Context, job mailer.EmailJob) {
	if w.users == nil || job.UserID == "" {
		return
	}
	n := entity.Notification{
		Status:  entity.NotificationUnread,
		Message: mailtpl.NotificationFor(job.Template),
		Time:    time.Now().UTC(),
	}
	if err := w.users.PushNotification(ctx, job.UserID, n); err != nil && !errors.Is(err, repo.ErrNotFound) {
		w.logger.WithError(err).WithField("user_id", job.UserID).Warn("notification push failed")
	}
}
