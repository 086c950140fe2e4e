package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-ecommerce/config"
	mongoinfra "github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/mongodb"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-ecommerce/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := &worker{
		sender: mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender),
		geo:    mailtpl.IPAPIResolver{},
		logger: logger,
	}
	if !cfg.InMemory() {
		db, err := mongoinfra.Connect(ctx, cfg.MongoURI, cfg.MongoDBName, cfg.MongoMaxPool, cfg.MongoTimeout)
		if err != nil {
			logger.WithError(err).Warn("mongo unavailable; notifications will not be recorded")
		} else {
			defer func() { _ = db.Client().Disconnect(context.Background()) }()
			w.users = mongoinfra.NewUserRepository(db)
		}
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("amqp consumer")
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			err := w.handle(ctx, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, errPermanent):
				logger.WithError(err).Warn("dropping email job")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).WithFields(logrus.Fields{"redelivered": msg.Redelivered}).Error("email job failed")
				// brief pause before requeue
				time.Sleep(time.Second)
				_ = msg.Nack(false, true)
			}
		}
	}
}
