package rabbitmq

import "context"

// Healthcheck returns a readiness function backed by the connection's event-driven
// health flag. It never performs network I/O.
func Healthcheck(conn *Connection) func(context.Context) error {
	return func(context.Context) error {
		if conn == nil || !conn.IsHealthy() {
			return ErrHealthcheckFailed
		}
		return nil
	}
}
