package storage

import "liquidityCore/internal/model"

// Storage defines a sink for log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// Multi fans a batch out to every sink, stopping at the first error.
type Multi []Storage

func (m Multi) PutLogBatch(logs []model.LogRecord) error {
	for _, s := range m {
		if err := s.PutLogBatch(logs); err != nil {
			return err
		}
	}
	return nil
}
