package coffer

import "github.com/xraph/coffer/id"

// ID is the identifier type carried by receipts and published events.
type ID = id.ID

// OperationID identifies a committed operation.
type OperationID = id.OperationID
