package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lumenlabs/profile-service/config"
	"github.com/lumenlabs/profile-service/pkg/mailer"
	mailtpl "github.com/lumenlabs/profile-service/pkg/mailer/templates"
)

// notify_worker drains the profile notification queue and sends the
// emails via Mailgun.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if !cfg.MailSendEnabled {
		log.Println("MAIL_SEND_ENABLED=false; notify worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQNotifyQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQNotifyQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQNotifyQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			var job mailer.EmailJob
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				log.Printf("bad message: %v", err)
				_ = msg.Nack(false, false)
				continue
			}

			subject := job.Subject
			text, html := job.Text, job.HTML
			if job.Template != "" {
				if subject == "" {
					subject = mailtpl.Subject(job.Template)
				}
				t, h, rErr := mailtpl.Render(job.Template, job.Data)
				if rErr != nil {
					log.Printf("render %q: %v", job.Template, rErr)
					_ = msg.Nack(false, false)
					continue
				}
				text, html = t, h
			}

			if err := mg.Send(ctx, job.To, subject, text, html); err != nil {
				log.Printf("send to %s: %v", job.To, err)
				_ = msg.Nack(false, true) // requeue once delivery fails
				continue
			}
			_ = msg.Ack(false)
		}
	}()

	log.Printf("notify worker consuming %q", cfg.RabbitMQNotifyQueue)
	<-stop
	log.Println("shutting down notify worker")
	_ = ch.Close()
	<-done
}
