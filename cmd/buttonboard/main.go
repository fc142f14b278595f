// Command buttonboard is a terminal playground for the game driver: it wires
// a real store and guard to a Surface that prints messages and their live
// button tokens to stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/macabreb0b/interpunctbot/engine"
	"github.com/macabreb0b/interpunctbot/internal/config"
	"github.com/macabreb0b/interpunctbot/internal/driver"
	"github.com/macabreb0b/interpunctbot/internal/guard"
	"github.com/macabreb0b/interpunctbot/internal/store"
)

// consoleSurface prints shared messages and private notices to stdout,
// including each button's token so it can be pasted back into a press
// command.
type consoleSurface struct{}

func printMessage(header string, msg engine.Message) {
	fmt.Printf("\n== %s ==\n%s\n", header, msg.Content)
	for _, row := range msg.Rows {
		for _, b := range row.Buttons {
			state := " "
			if b.Disabled {
				state = "x"
			}
			fmt.Printf("  [%s] %-10s %s\n", state, b.Label, b.ID)
		}
	}
}

func (consoleSurface) Post(ctx context.Context, id engine.GameID, msg engine.Message) error {
	printMessage(fmt.Sprintf("game %d", id), msg)
	return nil
}

func (consoleSurface) Update(ctx context.Context, id engine.GameID, msg engine.Message) error {
	printMessage(fmt.Sprintf("game %d (updated)", id), msg)
	return nil
}

func (consoleSurface) Notify(ctx context.Context, user engine.UserID, n driver.Notice) error {
	printMessage(fmt.Sprintf("to %s (private)", user), engine.Message{Content: n.Text, Rows: n.Rows})
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	sq, err := store.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return sq, func() { sq.Close() }, nil
}

func buildGuard(cfg config.Config) guard.Guard {
	if cfg.RedisAddr != "" {
		return guard.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	return guard.NewMemory()
}

func main() {
	logger := log.New()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}
	if err := cfg.ConfigureLogger(logger); err != nil {
		logger.Fatal(err)
	}

	ctx := context.Background()
	st, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal(err)
	}
	defer closeStore()

	d := driver.New(st, buildGuard(cfg), consoleSurface{}, logger)

	fmt.Println("commands:")
	fmt.Println("  start <kind> <user>    kinds:", kindList())
	fmt.Println("  press <user> <token>")
	fmt.Println("  quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "start":
			if len(fields) != 3 {
				fmt.Println("usage: start <kind> <user>")
				continue
			}
			id, err := d.Create(ctx, engine.Kind(fields[1]), engine.UserID(fields[2]))
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("started game", id)
		case "press":
			if len(fields) != 3 {
				fmt.Println("usage: press <user> <token>")
				continue
			}
			if err := d.Press(ctx, fields[2], engine.UserID(fields[1])); err != nil {
				fmt.Println("error:", err)
			}
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal(err)
	}
}

func kindList() string {
	var kinds []string
	for _, k := range engine.Kinds() {
		kinds = append(kinds, string(k))
	}
	return strings.Join(kinds, " ")
}
