package obs

import "go.uber.org/zap"

// ZapSink writes events as structured log lines. Defects and drops log at
// warn level, everything else at debug.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapSink{log: log}
}

func (s *ZapSink) Emit(ev Event) {
	fields := []zap.Field{zap.String("kind", string(ev.Kind))}
	if ev.Day > 0 {
		fields = append(fields, zap.Int("day", ev.Day))
	}
	if ev.Candidate != "" {
		fields = append(fields, zap.String("candidate", string(ev.Candidate)))
	}
	if ev.Reason != "" {
		fields = append(fields, zap.String("reason", ev.Reason))
	}
	if ev.Value != 0 {
		fields = append(fields, zap.Float64("value", ev.Value))
	}

	switch ev.Kind {
	case KindScheduleDefect, KindCandidateDropped:
		s.log.Warn("planner event", fields...)
	case KindPlanCompleted:
		s.log.Info("planner event", fields...)
	default:
		s.log.Debug("planner event", fields...)
	}
}
