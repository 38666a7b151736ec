//go:build datagen_kafka_record_changes

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/src/adapters/kafka/consumers"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/kafka"
)

func toMessage(record entities.Record, deleted bool) consumers.KafkaRecordMessage {
	return consumers.KafkaRecordMessage{
		AccountID:      record.AccountID,
		Kind:           string(record.Kind),
		SerialID:       record.SerialID,
		ParentSerialID: record.ParentSerialID,
		Name:           record.Name,
		TypeName:       record.TypeName,
		Properties:     record.Properties,
		Deleted:        deleted,
	}
}

// generateBatch gera as árvores de um tenant e, de vez em quando, remove uma folha já enviada.
func generateBatch(accountID int64, shape treeShape, deleteRatio float64) []consumers.KafkaRecordMessage {
	records := append(generateDepartments(accountID, shape), generateChartOfAccounts(accountID, shape)...)

	messages := make([]consumers.KafkaRecordMessage, 0, len(records)+1)
	for _, record := range records {
		messages = append(messages, toMessage(record, false))
	}

	if rand.Float64() < deleteRatio {
		victim := records[rand.Intn(len(records))]
		messages = append(messages, toMessage(victim, true))
	}

	return messages
}

func main() {
	numAccounts := flag.Int("accounts", 10, "Number of tenants to generate. Use -1 for infinite.")
	firstAccountID := flag.Int64("first-account-id", 1, "account_id of the first tenant")
	depth := flag.Int("depth", 3, "Maximum tree depth")
	fanout := flag.Int("fanout", 3, "Maximum children per node")
	deleteRatio := flag.Float64("delete-ratio", 0.1, "Chance of emitting a deletion per tenant")
	topic := flag.String("topic", "", "Kafka topic to send messages to (required)")
	brokers := flag.String("brokers", "", "Kafka brokers (comma-separated) (required)")
	delayMs := flag.Int("delay-ms", 100, "Delay in milliseconds between tenants")
	flag.Parse()

	if *topic == "" {
		log.Fatal("The 'topic' flag is required")
	}
	if *brokers == "" {
		log.Fatal("The 'brokers' flag is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	kafkaClient, err := kafka.NewKafkaClient(logger, *brokers, "hierarchy-datagen", 500)
	if err != nil {
		log.Fatalf("Failed to create Kafka client: %v", err)
	}
	defer kafkaClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping...")
		cancel()
	}()

	shape := treeShape{Depth: *depth, Fanout: *fanout}
	isInfinite := *numAccounts == -1
	messagesSent := 0
	startTime := time.Now()

	for i := 0; isInfinite || i < *numAccounts; i++ {
		select {
		case <-ctx.Done():
			log.Println("Shutdown requested, stopping message generation")
			return
		default:
		}

		accountID := *firstAccountID + int64(i)
		batch := generateBatch(accountID, shape, *deleteRatio)

		kafkaMessages := make([]kafka.Message, 0, len(batch))
		for _, msg := range batch {
			msgBytes, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal message: %v", err)
				continue
			}

			kafkaMessages = append(kafkaMessages, kafka.Message{
				// Mesmo escopo, mesma partição: a ordem dentro do tenant é preservada
				Key:   fmt.Sprintf("%d:%s", msg.AccountID, msg.Kind),
				Value: msgBytes,
			})
		}

		if err := kafkaClient.Producer(kafkaMessages, *topic); err != nil {
			log.Printf("Failed to send batch for account %d: %v", accountID, err)
			continue
		}

		messagesSent += len(kafkaMessages)
		log.Printf("Sent tenant %d (%d messages, %.1f msg/sec)",
			accountID, len(kafkaMessages), float64(messagesSent)/time.Since(startTime).Seconds())

		if *delayMs > 0 {
			time.Sleep(time.Duration(*delayMs) * time.Millisecond)
		}
	}

	log.Printf("✅ Completed! Sent %d messages in %v", messagesSent, time.Since(startTime).Round(time.Millisecond))
}
