package rsl

// Layouts shared by several message types.
var (
	chanOnly  = []field{must(ieChannelNumber)}
	chanLink  = []field{must(ieChannelNumber), must(ieLinkIdentifier)}
	chanCause = []field{must(ieChannelNumber), must(ieCause)}
	chanL3    = []field{must(ieChannelNumber), must(ieLinkIdentifier), must(ieL3Info)}
	detection = []field{must(ieChannelNumber), opt(ieAccessDelay)}
	preproc   = []field{must(ieChannelNumber), untaggedLV("Preprocessing Parameters")}
	sacchFill = []field{must(ieSysInfoType), opt(ieL3InfoSkip), opt(ieStartingTime)}
	immAssign = []field{must(ieChannelNumber), must(ieFullImmAss)}
)

// messages lists the information elements of every decoded message type,
// in the order they appear.
var messages = map[uint8][]field{
	// Radio link layer management
	0x01: chanL3, // DATA REQuest
	0x02: chanL3, // DATA INDication
	0x03: {must(ieChannelNumber), must(ieLinkIdentifier), must(ieRLMCause)},
	0x04: chanLink,
	0x05: chanLink,
	0x06: {must(ieChannelNumber), must(ieLinkIdentifier), opt(ieL3Info)},
	0x07: {must(ieChannelNumber), must(ieLinkIdentifier), must(ieReleaseMode)},
	0x08: chanLink,
	0x09: chanLink,
	0x0a: {must(ieChannelNumber), must(ieLinkIdentifier), opt(ieL3Info)},
	0x0b: chanL3,

	// Common channel management
	0x11: {must(ieChannelNumber), must(ieSysInfoType), opt(ieFullBCCHInfo), opt(ieStartingTime)},
	0x12: {must(ieChannelNumber), opt(ieRACHLoad), opt(iePagingLoad)},
	0x13: {must(ieChannelNumber), must(ieRequestReference), must(ieAccessDelay), opt(iePhysicalContext)},
	0x14: immAssign,
	0x15: {must(ieChannelNumber), must(iePagingGroup), must(ieMSIdentity), opt(ieChannelNeeded), opt(ieEMLPP)},
	0x16: immAssign,
	0x17: {must(ieChannelNumber), must(ieSMSCBInfo), opt(ieSMSCBChannel)},
	0x1d: {must(ieChannelNumber), must(ieCBCommandType), must(ieSMSCBMessage), opt(ieSMSCBChannel)},
	0x1e: {must(ieChannelNumber), must(ieCBCHLoad), opt(ieSMSCBChannel)},
	0x1f: {
		must(ieChannelNumber), must(ieCommandIndicator),
		opt(ieGroupCallRef), opt(ieChannelDesc), opt(ieNCHDRX),
	},

	// TRX management
	0x19: {must(ieResourceInfo)},
	0x1a: sacchFill,
	0x1b: {must(ieCause)},
	0x1c: {
		must(ieCause), opt(ieMessageIdentifier), opt(ieChannelNumber),
		opt(ieLinkIdentifier), opt(ieErroneousMsg),
	},

	// Dedicated channel management
	ChanActiv: {
		must(ieChannelNumber), must(ieActivationType), ifAny(ieChannelMode),
		opt(ieChannelID), opt(ieEncryption), opt(ieHORef), opt(ieBSPower),
		opt(ieMSPower), opt(ieTimingAdvance), opt(ieBSPowerParams),
		opt(ieMSPowerParams), opt(iePhysicalContext), opt(ieSACCHInfo),
		opt(ieUIC), opt(ieMainChannelRef), opt(ieMultiRateConfig),
		opt(ieMultiRateControl), opt(ieCodecTypes), opt(ieTFOContainer),
	},
	ChanActivAck:  {must(ieChannelNumber), must(ieFrameNumber)},
	ChanActivNack: chanCause,
	0x24:          chanCause, // CONNection FAILure
	0x25:          chanOnly,  // DEACTivate SACCH
	0x26: {
		must(ieChannelNumber), must(ieEncryption),
		must(ieLinkIdentifier), must(ieL3Info),
	},
	0x27: detection, // HANDover DETection
	0x28: {
		must(ieChannelNumber), must(ieMeasResultNumber), must(ieUplinkMeas),
		must(ieBSPower), opt(ieL1Info), opt(ieL3InfoMeas), opt(ieMSTimingOffset),
	},
	0x29: {
		must(ieChannelNumber), must(ieChannelMode), opt(ieEncryption),
		opt(ieMainChannelRef), opt(ieMultiRateConfig), opt(ieMultiRateControl),
		opt(ieCodecTypes), opt(ieTFOContainer),
	},
	0x2a: chanOnly,
	0x2b: chanCause,
	0x2c: chanOnly,
	0x2d: {
		must(ieChannelNumber), must(ieBSPower), must(ieMSPower),
		must(ieTimingAdvance), opt(iePhysicalContext),
	},
	RFChanRel:    chanOnly,
	0x2f:         {must(ieChannelNumber), opt(ieMSPower), opt(ieMSPowerParams)},
	0x30:         {must(ieChannelNumber), must(ieBSPower), opt(ieBSPowerParams)},
	0x31:         preproc,
	0x32:         preproc,
	RFChanRelAck: chanOnly,
	0x34:         append([]field{must(ieChannelNumber)}, sacchFill...),
	0x35:         detection, // TALKER DETection
	0x36:         detection, // LISTENER DETection
	0x37:         {must(ieChannelNumber), must(ieCodecConfig), opt(ieCodecTypes), opt(ieTFOContainer)},
	0x38:         {must(ieChannelNumber), must(ieRoundTripDelay)},
	0x39: {
		must(ieChannelNumber), must(ieMultiRateControl),
		must(ieCodecConfig), opt(ieTFOContainer),
	},
	0x3a: {must(ieChannelNumber), opt(ieMultiRateConfig)},
	0x3b: {must(ieChannelNumber), opt(ieMultiRateConfig)},
	0x3c: chanCause,
	0x3d: {must(ieChannelNumber), must(ieMultiRateConfig)},
	0x3e: {must(ieChannelNumber), must(ieTFOStatus)},
	0x3f: {
		must(ieChannelNumber), must(ieMultiRateControl),
		opt(ieCodecTypes), opt(ieTFOContainer),
	},

	// Location services
	0x41: {untaggedLV("Location Information")},
}
