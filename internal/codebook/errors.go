package codebook

import "github.com/qvzgo/qvcodebook/internal/qverr"

// ErrEmptyTraining is returned by CalculateStatistics when the
// training sample has no lines at all.
var ErrEmptyTraining = qverr.New(qverr.EmptyTraining, "training sample has no lines")

// ErrColumnMismatch is returned when a training line's length doesn't
// match the sample's declared column count.
var ErrColumnMismatch = qverr.New(qverr.MalformedCodebook, "training line length does not match column count")

// ErrInvalidConfig is returned by Generate when comp is outside [0,1].
var ErrInvalidConfig = qverr.New(qverr.InvalidConfig, "compression ratio must be in [0,1]")

// ErrUnknownContext is returned by Family.Select when asked to select
// under a context symbol the family was never trained with.
var ErrUnknownContext = qverr.New(qverr.InvalidConfig, "unknown context symbol for column")
