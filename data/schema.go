// Package data provides the Apache Arrow schemas and the event batch codec
// used for block payloads. Batches travel between nodes as Arrow IPC bytes,
// so the schema here is the wire contract and must stay stable.
package data

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// EventSchema returns the Arrow schema for one entity event: who it
// happened to (entity_id), what happened (event), when (timestamp, Unix
// seconds), string metadata (details) and the raw payload (data). Every
// field is nullable. Changing this schema breaks decoding of payloads
// gossiped by older nodes.
func EventSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "entity_id", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "event", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "timestamp", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{
				Name: "details",
				Type: arrow.MapOf(
					arrow.BinaryTypes.String,
					arrow.BinaryTypes.String,
				),
				Nullable: true,
			},
			{Name: "data", Type: arrow.BinaryTypes.Binary, Nullable: true},
		},
		nil,
	)
}
