package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"pwdriver/internal/logger"
	"pwdriver/pkg/client"
)

// TrafficRecord 一条网络观测记录
type TrafficRecord struct {
	ID           uint   `gorm:"primaryKey"`
	SessionID    string `gorm:"index"`
	Type         string // requested / continued / fulfilled / aborted / failed / finished
	URL          string
	Method       string
	ResourceType string
	Status       int
	Timestamp    int64
	CreatedAt    time.Time
}

// Recorder 网络流量记录器，把观测事件落入 sqlite
type Recorder struct {
	db      *gorm.DB
	session string
	log     logger.Logger
}

// Open 打开（或创建）流量库并完成建表
func Open(dsn, prefix string, l logger.Logger) (*Recorder, error) {
	if l == nil {
		l = logger.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(l),
		NamingStrategy: schema.NamingStrategy{TablePrefix: prefix},
	})
	if err != nil {
		return nil, fmt.Errorf("打开流量库失败: %w", err)
	}
	if err := db.AutoMigrate(&TrafficRecord{}); err != nil {
		return nil, fmt.Errorf("流量库建表失败: %w", err)
	}
	return &Recorder{db: db, session: uuid.NewString(), log: l}, nil
}

// Session 本次记录会话标识
func (r *Recorder) Session() string { return r.session }

// Record 写入一条观测记录
func (r *Recorder) Record(ev client.NetworkEvent) error {
	rec := TrafficRecord{
		SessionID:    r.session,
		Type:         ev.Type,
		URL:          ev.URL,
		Method:       ev.Method,
		ResourceType: ev.ResourceType,
		Status:       ev.Status,
		Timestamp:    ev.Timestamp,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("写入流量记录失败: %w", err)
	}
	return nil
}

// Consume 持续消费观测事件直到通道关闭，写入失败只告警不中断
func (r *Recorder) Consume(ch <-chan client.NetworkEvent) {
	for ev := range ch {
		if err := r.Record(ev); err != nil {
			r.log.Err(err, "流量记录写入失败", "url", ev.URL)
		}
	}
}

// Count 统计某会话的记录数
func (r *Recorder) Count(session string) (int64, error) {
	var n int64
	err := r.db.Model(&TrafficRecord{}).Where("session_id = ?", session).Count(&n).Error
	return n, err
}

// BySession 按写入顺序取出某会话的全部记录
func (r *Recorder) BySession(session string) ([]TrafficRecord, error) {
	var out []TrafficRecord
	err := r.db.Where("session_id = ?", session).Order("id").Find(&out).Error
	return out, err
}
