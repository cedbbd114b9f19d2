package defs

// Common labels for logging
const (
	LabelComponent = "component"
	LabelName      = "name"
	LabelPart      = "part"
	LabelTrigger   = "trigger"

	LabelLocal  = "local"
	LabelRemote = "remote"
	LabelClient = "client"
)

// Names of metrics carried in the shipper's own stats payload
const (
	StatBufferedRecords = "shipper.buffered"
	StatEvictedRecords  = "shipper.evicted"
	StatFilteredRecords = "shipper.filtered"
	StatRejectedRecords = "shipper.rejected"
	StatFailedFlushes   = "shipper.failedFlushes"
)
