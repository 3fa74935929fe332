package services

import (
	"context"

	"robokassa/entity"
)

type Database interface {
	WriteLogMessage(data Data) error

	SaveNotification(ctx context.Context, notification *entity.Notification) error
	GetNotification(ctx context.Context, invID string) (*entity.Notification, error)
}

type Data interface {
	DataType() string
}
