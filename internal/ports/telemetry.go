package ports

import (
	"time"

	"github.com/bnema/karmabot/internal/domain"
)

// Telemetry receives runtime signals from the bot core.
type Telemetry interface {
	LineReceived()
	ProtocolError(kind string)
	CommandExecuted(kind domain.CommandKind)
	StoreCall(op string, elapsed time.Duration, err error)
	SessionConnected(connected bool)
	Reconnecting()
}

type NopTelemetry struct{}

func (NopTelemetry) LineReceived()                          {}
func (NopTelemetry) ProtocolError(string)                   {}
func (NopTelemetry) CommandExecuted(domain.CommandKind)     {}
func (NopTelemetry) StoreCall(string, time.Duration, error) {}
func (NopTelemetry) SessionConnected(bool)                  {}
func (NopTelemetry) Reconnecting()                          {}
