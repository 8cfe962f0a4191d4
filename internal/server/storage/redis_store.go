package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix   = "room:"
	resultsKey      = "results:recent"
	statsKey        = "stats:games"
	playerKeyPrefix = "player:stats:"
	winsBoardKey    = "leaderboard:wins"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour

	// DefaultResultHistory 默认保留的最近对局数
	DefaultResultHistory = 100
)

// RoomData 房间快照（用于 Redis 序列化，只写不恢复）
type RoomData struct {
	ID           string       `json:"id"`
	Phase        string       `json:"phase"`
	TrumpSuit    string       `json:"trump_suit,omitempty"`
	TrumpPending bool         `json:"trump_pending,omitempty"` // 本墩已定主，结算后补发
	CurrentTurn  *int         `json:"current_turn,omitempty"`  // 对局进行中才有
	DrawPile     int          `json:"draw_pile"`
	Players      []PlayerData `json:"players"`
	CreatedAt    int64        `json:"created_at"`
	UpdatedAt    int64        `json:"updated_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Seat       int    `json:"seat"`
	Team       string `json:"team"`
	CardsCount int    `json:"cards_count"`
}

// TeamScoreData 队伍得分
type TeamScoreData struct {
	Tens   int `json:"tens"`
	Tricks int `json:"tricks"`
}

// ResultData 一局结束后的结果
type ResultData struct {
	RoomID     string        `json:"room_id"`
	Winner     string        `json:"winner,omitempty"` // "A" / "B"，平局或中止为空
	Reason     string        `json:"reason"`
	Message    string        `json:"message"`
	TeamA      TeamScoreData `json:"team_a"`
	TeamB      TeamScoreData `json:"team_b"`
	Players    []PlayerData  `json:"players"`
	FinishedAt int64         `json:"finished_at"`
}

// PlayerStats 玩家统计，按昵称累计
type PlayerStats struct {
	Games int64  `json:"games" redis:"games"`
	Wins  int64  `json:"wins" redis:"wins"`
	Tens  int64  `json:"tens" redis:"tens"` // 所在队伍累计收下的 10
}

// LeaderboardEntry 胜场排行榜条目
type LeaderboardEntry struct {
	Rank int
	Name string
	Wins int64
}

// RedisStore Redis 存储
type RedisStore struct {
	client  *redis.Client
	history int64
}

// NewRedisStore 创建 Redis 存储，history <= 0 时使用默认值
func NewRedisStore(client *redis.Client, history int) *RedisStore {
	if history <= 0 {
		history = DefaultResultHistory
	}
	return &RedisStore{client: client, history: int64(history)}
}

// Ping 检查连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// --- 房间快照 ---

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomID string, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	return rs.client.Set(ctx, roomKeyPrefix+roomID, jsonData, roomExpiration).Err()
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	return rs.client.Del(ctx, roomKeyPrefix+roomID).Err()
}

// --- 对局结果 ---

// RecordResult 记录对局结果，更新最近对局列表、全局计数和玩家统计
//
// 连接 ID 每次连接都会变化，玩家统计与排行榜以昵称为键；同一局内重名只计一次。
func (rs *RedisStore) RecordResult(ctx context.Context, result *ResultData) error {
	if result == nil {
		return nil
	}

	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化对局结果失败: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.LPush(ctx, resultsKey, jsonData)
	pipe.LTrim(ctx, resultsKey, 0, rs.history-1)

	pipe.HIncrBy(ctx, statsKey, "games", 1)
	pipe.HIncrBy(ctx, statsKey, outcomeField(result), 1)

	seen := make(map[string]bool, len(result.Players))
	for _, p := range result.Players {
		if p.Name == "" || seen[p.Name] {
			continue
		}
		seen[p.Name] = true

		key := playerKeyPrefix + p.Name
		pipe.HIncrBy(ctx, key, "games", 1)
		pipe.HIncrBy(ctx, key, "tens", int64(teamTens(result, p.Team)))
		if result.Winner != "" && p.Team == result.Winner {
			pipe.HIncrBy(ctx, key, "wins", 1)
			pipe.ZIncrBy(ctx, winsBoardKey, 1, p.Name)
		}
	}

	_, err = pipe.Exec(ctx)
	return err
}

// RecentResults 获取最近 n 局结果，最新的在前
func (rs *RedisStore) RecentResults(ctx context.Context, n int) ([]*ResultData, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := rs.client.LRange(ctx, resultsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*ResultData, 0, len(raw))
	for _, item := range raw {
		var r ResultData
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("反序列化对局结果失败: %w", err)
		}
		results = append(results, &r)
	}
	return results, nil
}

// GameStats 获取全局对局计数
func (rs *RedisStore) GameStats(ctx context.Context) (map[string]int64, error) {
	raw, err := rs.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("解析统计字段 %s 失败: %w", k, err)
		}
		stats[k] = n
	}
	return stats, nil
}

// GetPlayerStats 按昵称获取玩家统计，没有记录时返回零值
func (rs *RedisStore) GetPlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	var stats PlayerStats
	if err := rs.client.HGetAll(ctx, playerKeyPrefix+name).Scan(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TopWinners 按胜场获取前 limit 名玩家
func (rs *RedisStore) TopWinners(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	zs, err := rs.client.ZRevRangeWithScores(ctx, winsBoardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		entries = append(entries, LeaderboardEntry{
			Rank: i + 1,
			Name: z.Member.(string),
			Wins: int64(z.Score),
		})
	}
	return entries, nil
}

func outcomeField(r *ResultData) string {
	switch {
	case r.Reason == "aborted":
		return "aborted"
	case r.Winner == "A":
		return "team_a_wins"
	case r.Winner == "B":
		return "team_b_wins"
	default:
		return "draws"
	}
}

func teamTens(r *ResultData, team string) int {
	switch team {
	case "A":
		return r.TeamA.Tens
	case "B":
		return r.TeamB.Tens
	}
	return 0
}
