//go:generate mockgen -source=$GOFILE -destination=${GOFILE}_mock.go -package=$GOPACKAGE

package progress

// Sink receives fractional progress (0.0〜1.0) from long-running sweeps.
// Callers must tolerate the sink being absent; see Report.
type Sink interface {
	Report(fraction float64)
}

// Report sinkがnilの場合は何もしない
func Report(sink Sink, fraction float64) {
	if sink == nil {
		return
	}
	sink.Report(fraction)
}
