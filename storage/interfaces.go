package storage

import "presale-tracker/models"

// ResultWriter is the interface any report export sink must satisfy.
type ResultWriter interface {
	Write(res *models.AggregationResult) error
	Close() error
}
