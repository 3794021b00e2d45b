package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

// KafkaChecker dials the cluster and confirms that every topic the process
// publishes to or consumes from has at least one partition.
type KafkaChecker struct {
	brokers []string
	topics  []string
}

func NewKafkaChecker(brokers []string, topics ...string) *KafkaChecker {
	return &KafkaChecker{brokers: brokers, topics: topics}
}

func (c *KafkaChecker) Name() string {
	return "kafka"
}

func (c *KafkaChecker) Check(ctx context.Context) Result {
	var lastErr error
	for _, broker := range c.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		missing, err := missingTopics(conn, c.topics)
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if len(missing) > 0 {
			return Result{Status: StatusDown, Message: "missing topics: " + strings.Join(missing, ",")}
		}
		return Result{Status: StatusUp}
	}
	if lastErr == nil {
		return Result{Status: StatusDown, Message: "no brokers configured"}
	}
	return Result{Status: StatusDown, Message: fmt.Sprintf("all brokers unreachable: %v", lastErr)}
}

func missingTopics(conn *kafka.Conn, topics []string) ([]string, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	partitions, err := conn.ReadPartitions(topics...)
	if err != nil && !strings.Contains(err.Error(), "Unknown Topic") {
		return nil, err
	}
	seen := make(map[string]bool, len(partitions))
	for _, p := range partitions {
		seen[p.Topic] = true
	}
	var missing []string
	for _, t := range topics {
		if !seen[t] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}
