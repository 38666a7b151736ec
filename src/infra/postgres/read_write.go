package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadWriteClient separa réplica de leitura e primário de escrita.
type ReadWriteClient struct {
	readPool  *pgxpool.Pool
	writePool *pgxpool.Pool
}

func NewReadWriteClient(read Config, write Config) (*ReadWriteClient, error) {
	readPool, err := NewPostgresClient(read)
	if err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}

	writePool, err := NewPostgresClient(write)
	if err != nil {
		readPool.Close()
		return nil, fmt.Errorf("write pool: %w", err)
	}

	return &ReadWriteClient{
		readPool:  readPool,
		writePool: writePool,
	}, nil
}

func (rwc *ReadWriteClient) GetReadPool() *pgxpool.Pool {
	return rwc.readPool
}

func (rwc *ReadWriteClient) GetWritePool() *pgxpool.Pool {
	return rwc.writePool
}

func (rwc *ReadWriteClient) Ping(ctx context.Context) error {
	if err := rwc.readPool.Ping(ctx); err != nil {
		return fmt.Errorf("read pool: %w", err)
	}
	if err := rwc.writePool.Ping(ctx); err != nil {
		return fmt.Errorf("write pool: %w", err)
	}
	return nil
}

func (rwc *ReadWriteClient) Close() {
	rwc.readPool.Close()
	rwc.writePool.Close()
}
