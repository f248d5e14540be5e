package midi

// Source kinds as they appear in the config file
const (
	KindPort   = "port"
	KindSerial = "serial"
)

// NewSource builds the input named by kind: a hot-plug Watcher for
// "port", a SerialSource for "serial". Any other kind gives nil.
func NewSource(kind, pattern, device string, baud int) Source {
	switch kind {
	case KindPort:
		return NewWatcher(pattern)
	case KindSerial:
		return NewSerialSource(device, baud)
	}
	return nil
}
