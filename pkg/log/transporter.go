package log

// Transporter delivers entries to one destination. Write is called from a
// single goroutine per logger; Close is called by whoever created the
// transporter.
type Transporter interface {
	Name() string
	Write(entry Entry) error
	Close() error
}
