package mongo

import (
	"context"
	"errors"
	"fmt"
	apperrors "itemshare/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
	opts   *options.TransactionOptions
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
		opts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority()),
	}
}

// ExecuteTransaction runs fn inside a session transaction. Errors returned by
// fn abort the transaction and are passed back unchanged so callers can match
// their own sentinels.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var fnErr error
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		fnErr = fn(sessCtx)
		return nil, fnErr
	}, m.opts)

	if err != nil {
		if fnErr != nil && errors.Is(err, fnErr) {
			return fnErr
		}
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// IsTransient reports whether err is worth retrying: write conflicts,
// transient transaction labels, network errors and timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorLabel("TransientTransactionError") || se.HasErrorLabel("UnknownTransactionCommitResult") {
			return true
		}
		if se.HasErrorCode(112) { // WriteConflict
			return true
		}
	}
	return false
}
