package data

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Event is one entity event carried in a block payload.
type Event struct {
	EntityID  string            `json:"entity_id"`
	Kind      string            `json:"event"`
	Timestamp float64           `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
	Payload   []byte            `json:"data,omitempty"`
}

// BatchCodec converts event slices to and from Arrow IPC bytes.
type BatchCodec struct {
	allocator memory.Allocator
	schema    *arrow.Schema
}

// NewBatchCodec creates a BatchCodec with the default allocator and the
// standard event schema.
func NewBatchCodec() *BatchCodec {
	return &BatchCodec{
		allocator: memory.DefaultAllocator,
		schema:    EventSchema(),
	}
}

// EncodeIPC builds an Arrow record from events and serializes it to IPC
// stream bytes.
func (c *BatchCodec) EncodeIPC(events []Event) ([]byte, error) {
	if len(events) == 0 {
		return nil, errors.New("empty event batch")
	}

	record, err := c.buildRecord(events)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(record.Schema()))

	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeIPC reads Arrow IPC bytes back into an event slice.
func (c *BatchCodec) DecodeIPC(ipcBytes []byte) ([]Event, error) {
	reader, err := ipc.NewReader(bytes.NewReader(ipcBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if reader.Err() != nil {
			return nil, reader.Err()
		}
		return nil, errors.New("no records in IPC data")
	}

	return c.extractEvents(reader.Record())
}

func (c *BatchCodec) buildRecord(events []Event) (arrow.Record, error) {
	builder := array.NewRecordBuilder(c.allocator, c.schema)
	defer builder.Release()

	entityIDBuilder := builder.Field(0).(*array.StringBuilder)
	kindBuilder := builder.Field(1).(*array.StringBuilder)
	timestampBuilder := builder.Field(2).(*array.Float64Builder)
	detailsBuilder := builder.Field(3).(*array.MapBuilder)
	payloadBuilder := builder.Field(4).(*array.BinaryBuilder)

	keyBuilder := detailsBuilder.KeyBuilder().(*array.StringBuilder)
	itemBuilder := detailsBuilder.ItemBuilder().(*array.StringBuilder)

	for _, ev := range events {
		entityIDBuilder.Append(ev.EntityID)
		kindBuilder.Append(ev.Kind)
		timestampBuilder.Append(ev.Timestamp)

		if len(ev.Details) > 0 {
			detailsBuilder.Append(true)
			for k, v := range ev.Details {
				keyBuilder.Append(k)
				itemBuilder.Append(v)
			}
		} else {
			detailsBuilder.AppendNull()
		}

		if ev.Payload != nil {
			payloadBuilder.Append(ev.Payload)
		} else {
			payloadBuilder.AppendNull()
		}
	}

	return builder.NewRecord(), nil
}

func (c *BatchCodec) extractEvents(record arrow.Record) ([]Event, error) {
	if record.NumCols() < 5 {
		return nil, fmt.Errorf("invalid record: expected at least 5 columns, got %d", record.NumCols())
	}

	entityIDCol, ok := record.Column(0).(*array.String)
	if !ok {
		return nil, errors.New("column 0 (entity_id) is not a String array")
	}
	kindCol, ok := record.Column(1).(*array.String)
	if !ok {
		return nil, errors.New("column 1 (event) is not a String array")
	}
	timestampCol, ok := record.Column(2).(*array.Float64)
	if !ok {
		return nil, errors.New("column 2 (timestamp) is not a Float64 array")
	}
	detailsCol, ok := record.Column(3).(*array.Map)
	if !ok {
		return nil, errors.New("column 3 (details) is not a Map array")
	}
	payloadCol, ok := record.Column(4).(*array.Binary)
	if !ok {
		return nil, errors.New("column 4 (data) is not a Binary array")
	}

	events := make([]Event, record.NumRows())
	for i := 0; i < int(record.NumRows()); i++ {
		events[i] = Event{
			EntityID:  entityIDCol.Value(i),
			Kind:      kindCol.Value(i),
			Timestamp: timestampCol.Value(i),
		}

		if !detailsCol.IsNull(i) {
			events[i].Details = extractDetails(detailsCol, i)
		}
		if !payloadCol.IsNull(i) {
			events[i].Payload = payloadCol.Value(i)
		}
	}
	return events, nil
}

// extractDetails extracts key-value pairs from a Map column at the given row.
func extractDetails(mapCol *array.Map, idx int) map[string]string {
	details := make(map[string]string)

	offsets := mapCol.Offsets()
	start := offsets[idx]
	end := offsets[idx+1]

	keys := mapCol.Keys().(*array.String)
	items := mapCol.Items().(*array.String)

	for j := start; j < end; j++ {
		details[keys.Value(int(j))] = items.Value(int(j))
	}
	return details
}
