package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	kafkaBroker = flag.String("broker", "localhost:9092", "Kafka broker address")
	topic       = flag.String("topic", "timer-logs", "Kafka topic to write timer records to")
	outFile     = flag.String("out", "", "Write records to this file instead of Kafka")
	count       = flag.Int("count", 1000, "Number of records to produce")
	interval    = flag.Duration("interval", 0, "Pause between Kafka messages")
	seed        = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
)

var (
	timerNames = []string{"block_import", "verify_header", "execute_block", "commit_state"}
	chains     = []string{"relay", "para-1000", "para-2000"}
)

// TimerEntry is the shape of one instrumentation record.
type TimerEntry struct {
	Name     string `json:"name"`
	Elapsed  uint64 `json:"elapsed"`
	SrcChain string `json:"src_chain"`
	Target   string `json:"target"`
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			sugar.Info("Shutdown signal received, stopping producer...")
			cancel()
		case <-ctx.Done():
		}
	}()

	lines := make([]string, 0, *count)
	for i := 0; i < *count; i++ {
		lines = append(lines, generateLine(rng))
	}

	if *outFile != "" {
		err = writeFile(*outFile, lines)
	} else {
		err = writeKafka(ctx, sugar, lines)
	}
	if err != nil {
		sugar.Errorw("Producer failed", "error", err)
		os.Exit(1)
	}
	sugar.Infow("Producer finished", "records", len(lines), "seed", *seed)
}

// writeFile lays records out one per line, closed by "\n]", which both split
// modes accept.
func writeFile(path string, lines []string) error {
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n]"), 0o644)
}

func writeKafka(ctx context.Context, sugar *zap.SugaredLogger, lines []string) error {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(*kafkaBroker),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			sugar.Errorw("Error closing kafka writer", "error", err)
		}
	}()
	sugar.Infow("Starting sample producer", "topic", *topic, "broker", *kafkaBroker)

	for i, line := range lines {
		if err := writer.WriteMessages(ctx, kafka.Message{Value: []byte(line)}); err != nil {
			if ctx.Err() != nil {
				sugar.Infow("Context cancelled, exiting message loop.", "written", i)
				return nil
			}
			return fmt.Errorf("write message %d: %w", i, err)
		}
		sugar.Debugw("Produced message", "value", line)

		if *interval > 0 {
			select {
			case <-time.After(*interval):
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

// generateLine returns one record, occasionally an outlier and occasionally
// corrupted the ways real instrumentation output gets corrupted.
func generateLine(rng *rand.Rand) string {
	entry := TimerEntry{
		Name:     timerNames[rng.Intn(len(timerNames))],
		Elapsed:  uint64(50 + rng.Intn(200)),
		SrcChain: chains[rng.Intn(len(chains))],
		Target:   "runtime",
	}
	// ~2% chance of an outlier
	if rng.Float64() < 0.02 {
		entry.Elapsed += uint64(5000 + rng.Intn(20000))
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return "{}"
	}
	line := string(b)

	// ~3% chance of a corrupted record
	switch r := rng.Float64(); {
	case r < 0.01:
		return line[:len(line)/2]
	case r < 0.02:
		return strings.Replace(line, fmt.Sprintf(`"elapsed":%d`, entry.Elapsed), fmt.Sprintf(`"elapsed":"%dms"`, entry.Elapsed), 1)
	case r < 0.03:
		return strings.Replace(line, fmt.Sprintf(`"name":%q,`, entry.Name), "", 1)
	}
	return line
}
