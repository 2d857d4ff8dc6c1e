package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SubmitJobMessage]               = (*SubmitJobCommand)(nil)
	_ gocmd.Commander[IngestCallbackMessage]          = (*IngestCallbackCommand)(nil)
	_ gocmd.Commander[StartNegotiationMessage]        = (*StartNegotiationCommand)(nil)
	_ gocmd.Commander[RecordNegotiationResultMessage] = (*RecordNegotiationResultCommand)(nil)
	_ gocmd.Commander[RecordNegotiationRoundMessage]  = (*RecordNegotiationRoundCommand)(nil)
)
