package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"mindspire-notifier/common/database"
	commonredis "mindspire-notifier/common/redis"
	"mindspire-notifier/internal/config"
	"mindspire-notifier/internal/consumer"
	"mindspire-notifier/internal/deriver"

	"go.uber.org/zap"
)

// 检查工具：打印当前集合会推导出的通知（不写入），以及数据库中的通知概况
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()
	now := time.Now()

	// 连接 Redis
	redisClient := commonredis.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()
	if err := commonredis.Ping(ctx, redisClient); err != nil {
		log.Fatalf("Failed to ping redis: %v", err)
	}

	// 1. 读取集合
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("1. Redis 集合")
	fmt.Println(strings.Repeat("=", 80))
	cache := consumer.NewCollectionCache(cfg, redisClient, zap.NewNop())
	state, err := cache.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load collections: %v", err)
	}
	fmt.Printf("%-30s %d\n", cfg.Notifier.Cache.AppointmentsKey, len(state.Snapshot.Appointments))
	fmt.Printf("%-30s %d\n", cfg.Notifier.Cache.InvoicesKey, len(state.Snapshot.Invoices))
	fmt.Printf("%-30s %d\n", cfg.Notifier.Cache.InventoryKey, len(state.Snapshot.Inventory))
	fmt.Printf("%-30s %+v\n", "notifications settings", state.Settings.Notifications)
	fmt.Printf("%-30s %016x\n", "fingerprint", state.Fingerprint)

	// 2. 推导（不写入存储）
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("2. 推导结果（now=%s）\n", now.Format(time.RFC3339))
	fmt.Println(strings.Repeat("=", 80))
	policy := deriver.Policy{
		DueSoonDays:        cfg.Notifier.Rules.DueSoonDays,
		StartingSoonWindow: time.Duration(cfg.Notifier.Rules.StartingSoonMinutes) * time.Minute,
	}
	requests := deriver.New(policy, nil).Derive(state.Snapshot, state.Settings.Notifications, now)
	fmt.Printf("%-12s %-8s %-40s %s\n", "type", "priority", "title", "message")
	fmt.Println(strings.Repeat("-", 80))
	for _, req := range requests {
		fmt.Printf("%-12s %-8s %-40s %s\n", req.Type, req.Priority, req.Title, req.Message)
	}
	fmt.Printf("\nTotal: %d\n", len(requests))

	if !cfg.DBEnabled {
		fmt.Println("\nDB_ENABLED=false, skip database checks")
		return
	}

	// 3. 数据库中的通知
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("3. notifications 表（按日期）")
	fmt.Println(strings.Repeat("=", 80))
	rows, err := db.QueryContext(ctx, `
		SELECT created_day::text, type, COUNT(*), COUNT(*) FILTER (WHERE is_read = FALSE)
		FROM notifications
		GROUP BY created_day, type
		ORDER BY created_day DESC, type
		LIMIT 50
	`)
	if err != nil {
		log.Fatalf("Failed to query notifications: %v", err)
	}
	defer rows.Close()

	fmt.Printf("%-12s %-12s %-8s %-8s\n", "day", "type", "total", "unread")
	fmt.Println(strings.Repeat("-", 80))
	for rows.Next() {
		var day, typ string
		var total, unread int
		if err := rows.Scan(&day, &typ, &total, &unread); err != nil {
			log.Printf("Failed to scan row: %v", err)
			continue
		}
		fmt.Printf("%-12s %-12s %-8d %-8d\n", day, typ, total, unread)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to iterate notifications: %v", err)
	}
}
