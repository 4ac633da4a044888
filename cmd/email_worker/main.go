package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"authgate/config"
	"authgate/pkg/helpers"
	"authgate/pkg/mailer"
	mailtpl "authgate/pkg/mailer/templates"
)

const sendTimeout = 15 * time.Second

type worker struct {
	mg  *mailer.Mailgun
	log *logrus.Logger
}

// handle sends one queued email. A false return means the message is
// malformed or unrenderable and must not be requeued.
func (w *worker) handle(ctx context.Context, body []byte) (requeue bool, err error) {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return false, err
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return false, err
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := w.mg.Send(sendCtx, job.To, subject, text, html); err != nil {
		return true, err
	}

	w.log.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return false, nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := helpers.NewLogger(cfg.AppName, cfg.Env)

	if !cfg.MailSendEnabled {
		log.Info("MAIL_SEND_ENABLED=false; email worker exiting")
		return
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("mailgun is not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Fatal("amqp dial failed")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Fatal("amqp channel failed")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.WithError(err).Fatal("qos failed")
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		log.WithError(err).Fatal("queue declare failed")
	}

	deliveries, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.WithError(err).Fatal("consume failed")
	}

	w := &worker{
		mg:  mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender),
		log: log,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	ctx := context.Background()
	go func() {
		defer close(done)
		for d := range deliveries {
			requeue, err := w.handle(ctx, d.Body)
			if err != nil {
				log.WithError(err).WithField("requeue", requeue).Warn("email job failed")
				// Drop poison messages that were already redelivered once.
				_ = d.Nack(false, requeue && !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}()

	log.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker started")
	<-stop
	log.Info("email worker shutting down")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
