//go:generate mockgen -source=$GOFILE -destination=${GOFILE}_mock.go -package=$GOPACKAGE

package clock

import "time"

type IClock interface {
	Now() time.Time
}
