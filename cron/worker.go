package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fixhive/config"
	"fixhive/models"
	"fixhive/services/notification"
	"fixhive/services/tasks"
	"fixhive/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitPushWorker runs the async push-delivery worker in the background. The
// resolver maps a queued target to its current device token.
func InitPushWorker(resolver notification.TokenResolver) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPushQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePushSend, handlePushTask(resolver))

	go func() {
		logger := utils.GetLogger()
		logger.Info("starting push worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("push worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Fatal("push worker exhausted start attempts")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handlePushTask(resolver notification.TokenResolver) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.PushPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Warn("invalid push payload", zap.Error(err))
			return err
		}

		token, err := resolver(ctx, p.Target, p.ID)
		if err != nil {
			// Unknown account or missing token: dropping beats retrying forever.
			logger.Warn("push token lookup failed",
				zap.String("target", p.Target), zap.String("id", p.ID), zap.Error(err))
			return nil
		}
		if token == "" {
			return nil
		}

		msg := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: p.Title,
				Body:  p.Body,
			},
			Data: map[string]string{
				"referenceType": p.ReferenceType,
				"referenceId":   p.ReferenceID,
			},
		}
		if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
			return fmt.Errorf("failed to deliver push to %s %s: %w", p.Target, p.ID, err)
		}
		return nil
	}
}
