package tsip

// Minor alarm bits (0x8F-AC). Each bit flags one independent condition;
// they are not mutually exclusive.
const (
	MinorOscRail         = 1 << 0
	MinorAntennaOpen     = 1 << 1
	MinorAntennaShorted  = 1 << 2
	MinorNoSatellites    = 1 << 3
	MinorUndisciplined   = 1 << 4
	MinorSurveyActive    = 1 << 5
	MinorNoStoredPos     = 1 << 6
	MinorLeapPending     = 1 << 7
	MinorTestMode        = 1 << 8
	MinorFixQuestionable = 1 << 9
	MinorEEPROMError     = 1 << 10
	MinorNoAlmanac       = 1 << 11
)

// Disciplining modes (0x8F-AC byte 3). Normal means the oscillator is
// locked to GPS; anything else is "not disciplined".
const (
	DisciplineNormal     = 0
	DisciplinePowerUp    = 1
	DisciplineAutoHold   = 2
	DisciplineManualHold = 3
	DisciplineRecovery   = 4
	DisciplineDisabled   = 6
)

// Receiver modes (0x8F-AC byte 2).
const (
	ModeAutomatic2D3D  = 0
	ModeSingleSat      = 1
	ModeHorizontal2D   = 3
	ModeFull3D         = 4
	ModeOverdetermined = 7
)
