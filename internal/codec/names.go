package codec

import "fmt"

// valueName returns the name of v in m, or "unknown 0x.." when absent.
func valueName(m map[uint8]string, v uint8) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("unknown 0x%x", v)
}

// RSL message discriminators (top 7 bits of the first octet).
const (
	RSLDiscRLM uint8 = 0x01
	RSLDiscDCM uint8 = 0x04
	RSLDiscCCM uint8 = 0x06
	RSLDiscTRX uint8 = 0x08
	RSLDiscLS  uint8 = 0x16
	RSLDiscIPA uint8 = 0x3f
	RSLDiscHUA uint8 = 0x55
)

var rslDiscNames = map[uint8][2]string{
	RSLDiscRLM: {"RadioLL", "Radio Link Layer Management (RLM)"},
	RSLDiscDCM: {"DedicCh", "Dedicated Channel Management (DCM)"},
	RSLDiscCCM: {"CommonCh", "Common Channel Management (CCM)"},
	RSLDiscTRX: {"TRX", "TRX Management"},
	RSLDiscLS:  {"LocSrv", "Location Services (LS)"},
	RSLDiscIPA: {"ipaccess", "ip.access Vendor Specific"},
	RSLDiscHUA: {"HuaweiPE", "HUAWEI Paging Extension"},
}

// RSLDiscName returns the short name of an RSL message discriminator.
func RSLDiscName(d uint8) string {
	return rslDiscNames[d][0]
}

// rslTypes holds the short and long name of every decoded RSL message type.
var rslTypes = map[uint8][2]string{
	0x01: {"DATA_REQ", "DATA REQuest"},
	0x02: {"DATA_IND", "DATA INDication"},
	0x03: {"ERR_IND", "ERROR INDication"},
	0x04: {"EST_REQ", "ESTablish REQuest"},
	0x05: {"EST_CON", "ESTablish CONFirm"},
	0x06: {"EST_IND", "ESTablish INDication"},
	0x07: {"REL_REQ", "RELease REQuest"},
	0x08: {"REL_CONF", "RELease CONFirm"},
	0x09: {"REL_IND", "RELease INDication"},
	0x0a: {"UNIT_DATA_REQ", "UNIT DATA REQuest"},
	0x0b: {"UNIT_DATA_IND", "UNIT DATA INDication"},
	0x11: {"BCCH_INFO", "BCCH INFOrmation"},
	0x12: {"CCCH_LOAD_IND", "CCCH LOAD INDication"},
	0x13: {"CHAN_RQD", "CHANnel ReQuireD"},
	0x14: {"DEL_IND", "DELETE INDication"},
	0x15: {"PAG_CMD", "PAGing CoMmanD"},
	0x16: {"IM_ASS_CMD", "IMMediate ASSign CoMmanD"},
	0x17: {"SMS_BC_REQ", "SMS BroadCast REQuest"},
	0x19: {"RF_RES_IND", "RF RESource INDication"},
	0x1a: {"SACCH_FILL", "SACCH FILLing"},
	0x1b: {"OVERLOAD", "OVERLOAD"},
	0x1c: {"ERR_REPORT", "ERROR REPORT"},
	0x1d: {"SMS_BC_CMD", "SMS BroadCast CoMmanD"},
	0x1e: {"CBCH_LOAD_IND", "CBCH LOAD INDication"},
	0x1f: {"NOT_CMD", "NOTification CoMmanD"},
	0x21: {"CH_ACTIV", "CHANnel ACTivation"},
	0x22: {"CH_ACTIV_ACK", "CHANnel ACTivation ACKnowledge"},
	0x23: {"CH_ACTIV_NACK", "CHANnel ACTivation Negative ACKnowledge"},
	0x24: {"CONN_FAIL", "CONNection FAILure"},
	0x25: {"DEACT_SACCH", "DEACTivate SACCH"},
	0x26: {"ENC_CMD", "ENCRyption CoMmanD"},
	0x27: {"HAND_DET", "HANDover DETect"},
	0x28: {"MEAS_RES", "MEASurement RESult"},
	0x29: {"MODE_MOD_REQ", "MODE MODify REQuest"},
	0x2a: {"MODE_MOD_ACK", "MODE MODify ACKnowledge"},
	0x2b: {"MODE_MOD_NACK", "MODE MODify Negative ACKnowledge"},
	0x2c: {"PHY_CONTEXT_REQ", "PHYsical CONTEXT REQuest"},
	0x2d: {"PHY_CONTEXT_CONF", "PHYsical CONTEXT CONFirm"},
	0x2e: {"RF_CHAN_REL", "RF CHANnel RELease"},
	0x2f: {"MS_POWER_CTRL", "MS POWER CONTROL"},
	0x30: {"BS_POWER_CTRL", "BS POWER CONTROL"},
	0x31: {"PREPROC_CONFIG", "PREPROCess CONFIGure"},
	0x32: {"PREPRO_MEAS_RES", "PREPROcessed MEASurement RESult"},
	0x33: {"RF_CH_REL_ACK", "RF CHannel RELease ACKnowledge"},
	0x34: {"SACCH_INFO_MODIFY", "SACCH INFO MODIFY"},
	0x35: {"TALKER_DET", "TALKER DETection"},
	0x36: {"LISTENER_DET", "LISTENER DETection"},
	0x37: {"REM_CODEC_CONF_REP", "REMote CODEC CONFiguration REPort"},
	0x38: {"RTD_REP", "Round Trip Delay REPort"},
	0x39: {"PRE_HANDO_NOTIF", "PRE-HANDOver NOTIFication"},
	0x3a: {"MR_CODEC_MOD_REQ", "MultiRate CODEC MODification REQuest"},
	0x3b: {"MR_CODEC_MOD_ACK", "MultiRate CODEC MODification ACKnowledge"},
	0x3c: {"MR_CODEC_MOD_NACK", "MultiRate CODEC MODification Negative ACKnowledge"},
	0x3d: {"MR_CODEC_MOD_PER", "MultiRate CODEC MODification PERformed"},
	0x3e: {"TFO_REP", "TFO REPort"},
	0x3f: {"TFO_MOD_REQ", "TFO MODification REQuest"},
	0x41: {"LOCATION_INFO", "LOCATION INFOrmation"},
}

// RSLTypeKnown reports whether t is a decodable RSL message type.
func RSLTypeKnown(t uint8) bool {
	_, ok := rslTypes[t]
	return ok
}

// RSLTypeName returns the short name of an RSL message type, "" for 0.
func RSLTypeName(t uint8) string {
	if t == 0 {
		return ""
	}
	if n, ok := rslTypes[t]; ok {
		return n[0]
	}
	return fmt.Sprintf("unknown 0x%x", t)
}

// RSLTypeLongName returns the descriptive name of an RSL message type.
func RSLTypeLongName(t uint8) string {
	if n, ok := rslTypes[t]; ok {
		return n[1]
	}
	return "unknown"
}

var rslCauses = map[uint8]string{
	0x00: "Radio Interface Failure",
	0x01: "Radio Link Failure",
	0x02: "Handover Access Failure",
	0x03: "Talker Access Failure",
	0x07: "O&M Intervention",
	0x0f: "Normal event, unspecified",
	0x18: "Siemens: T_MSRFPCI Expired",
	0x20: "Equipment Failure",
	0x21: "Radio Resource not available",
	0x22: "Terrestrial Channel Failure",
	0x23: "CCCH Overload",
	0x24: "ACCH Overload",
	0x25: "Processor Overload",
	0x27: "BTS not equipped",
	0x28: "Remote Transcoder Failure",
	0x29: "Notification Overflow",
	0x2f: "Resource not available, unspecified",
	0x30: "Transcoding not available",
	0x3f: "Service or Option not available",
	0x40: "Encryption algorithm not implemented",
	0x4f: "Service or Option not implemented",
	0x50: "Radio channel already activated",
	0x5f: "Invalid Message, unspecified",
	0x60: "Message Discriminator Error",
	0x61: "Message Type Error",
	0x62: "Message Sequence Error",
	0x63: "General IE error",
	0x64: "Mandatory IE error",
	0x65: "Optional IE error",
	0x66: "IE non-existent",
	0x67: "IE length error",
	0x68: "IE content error",
	0x6f: "Protocol error, unspecified",
	0x7f: "Interworking error, unspecified",
}

// RSLCauseName names an RSL cause value.
func RSLCauseName(c uint8) string { return valueName(rslCauses, c) }

// DTAP message type codes used by the decoders and the statistics.
const (
	CCAlerting      uint8 = 0x01
	CCCallProc      uint8 = 0x02
	CCProgress      uint8 = 0x03
	CCSetup         uint8 = 0x05
	CCConnect       uint8 = 0x07
	CCCallConf      uint8 = 0x08
	CCEmergSetup    uint8 = 0x0e
	CCConnectAck    uint8 = 0x0f
	CCDisconnect    uint8 = 0x25
	CCReleaseCompl  uint8 = 0x2a
	CCRelease       uint8 = 0x2d
	CCStatus        uint8 = 0x3d
	CCStatusEnquiry uint8 = 0x34
)

var ccMsgNames = map[uint8]string{
	0x01: "ALERTING",
	0x02: "CALL_PROC",
	0x03: "PROGRESS",
	0x04: "ESTAB",
	0x05: "SETUP",
	0x06: "ESTAB_CONF",
	0x07: "CONNECT",
	0x08: "CALL_CONF",
	0x09: "START_CC",
	0x0b: "RECALL",
	0x0e: "EMERG_SETUP",
	0x0f: "CONNECT_ACK",
	0x10: "USER_INFO",
	0x13: "MODIFY_REJECT",
	0x17: "MODIFY",
	0x18: "HOLD",
	0x19: "HOLD_ACK",
	0x1a: "HOLD_REJ",
	0x1c: "RETR",
	0x1d: "RETR_ACK",
	0x1e: "RETR_REJ",
	0x1f: "MODIFY_COMPL",
	0x25: "DISCONNECT",
	0x2a: "RELEASE_COMPL",
	0x2d: "RELEASE",
	0x31: "STOP_DTMF",
	0x32: "STOP_DTMF_ACK",
	0x34: "STATUS_ENQ",
	0x35: "START_DTMF",
	0x36: "START_DTMF_ACK",
	0x37: "START_DTMF_REJ",
	0x39: "CONG_CTRL",
	0x3a: "FACILITY",
	0x3d: "STATUS",
	0x3e: "NOTIFY",
}

// CCMsgName names a call control message type.
func CCMsgName(t uint8) string { return valueName(ccMsgNames, t) }

var ccCauses = map[uint8]string{
	1:   "UNASSIGNED_NR",
	3:   "NO_ROUTE",
	6:   "CHAN_UNACCEPT",
	8:   "OP_DET_BARRING",
	16:  "NORM_CALL_CLEAR",
	17:  "USER_BUSY",
	18:  "USER_NOTRESPOND",
	19:  "USER_ALERTING_NA",
	21:  "CALL_REJECTED",
	22:  "NUMBER_CHANGED",
	25:  "PRE_EMPTION",
	26:  "NONSE_USER_CLR",
	27:  "DEST_OOO",
	28:  "INV_NR_FORMAT",
	29:  "FACILITY_REJ",
	30:  "RESP_STATUS_INQ",
	31:  "NORMAL_UNSPEC",
	34:  "NO_CIRCUIT_CHAN",
	38:  "NETWORK_OOO",
	41:  "TEMP_FAILURE",
	42:  "SWITCH_CONG",
	43:  "ACC_INF_DISCARD",
	44:  "REQ_CHAN_UNAVAIL",
	47:  "RESOURCE_UNAVAIL",
	49:  "QOS_UNAVAIL",
	50:  "REQ_FAC_NOT_SUBSC",
	55:  "INC_BARRED_CUG",
	57:  "BEARER_CAP_UNAUTH",
	58:  "BEARER_CA_UNAVAIL",
	63:  "SERV_OPT_UNAVAIL",
	65:  "BEARERSERV_UNIMPL",
	68:  "ACM_GE_ACM_MAX",
	69:  "REQ_FAC_NOTIMPL",
	70:  "RESTR_BCAP_AVAIL",
	79:  "SERV_OPT_UNIMPL",
	81:  "INVAL_TRANS_ID",
	87:  "USER_NOT_IN_CUG",
	88:  "INCOMPAT_DEST",
	91:  "INVAL_TRANS_NET",
	95:  "SEMANTIC_INCORR",
	96:  "INVAL_MAND_INF",
	97:  "MSGTYPE_NOTEXIST",
	98:  "MSGTYPE_INCOMPAT",
	99:  "IE_NOTEXIST",
	100: "COND_IE_ERR",
	101: "MSG_INCOMP_STATE",
	102: "RECOVERY_TIMER",
	111: "PROTO_ERR",
	127: "INTERWORKING",
}

// CCCauseName names a call control cause value.
func CCCauseName(c uint8) string { return valueName(ccCauses, c) }

var mmMsgNames = map[uint8]string{
	0x01: "GSM48_MT_MM_IMSI_DETACH_IND",
	0x02: "GSM48_MT_MM_LOC_UPD_ACCEPT",
	0x04: "GSM48_MT_MM_LOC_UPD_REJECT",
	0x08: "GSM48_MT_MM_LOC_UPD_REQUEST",
	0x11: "GSM48_MT_MM_AUTH_REJ",
	0x12: "GSM48_MT_MM_AUTH_REQ",
	0x14: "GSM48_MT_MM_AUTH_RESP",
	0x1c: "GSM48_MT_MM_AUTH_FAIL",
	0x18: "GSM48_MT_MM_ID_REQ",
	0x19: "GSM48_MT_MM_ID_RESP",
	0x1a: "GSM48_MT_MM_TMSI_REALL_CMD",
	0x1b: "GSM48_MT_MM_TMSI_REALL_COMPL",
	0x21: "GSM48_MT_MM_CM_SERV_ACC",
	0x22: "GSM48_MT_MM_CM_SERV_REJ",
	0x23: "GSM48_MT_MM_CM_SERV_ABORT",
	0x24: "GSM48_MT_MM_CM_SERV_REQ",
	0x25: "GSM48_MT_MM_CM_SERV_PROMPT",
	0x28: "GSM48_MT_MM_CM_REEST_REQ",
	0x29: "GSM48_MT_MM_ABORT",
	0x30: "GSM48_MT_MM_NULL",
	0x31: "GSM48_MT_MM_STATUS",
	0x32: "GSM48_MT_MM_INFO",
}

// MMMsgName names a mobility management message type.
func MMMsgName(t uint8) string { return valueName(mmMsgNames, t) }

var rrMsgNames = map[uint8]string{
	0x3c: "RR INITIALISATION REQUEST",
	0x3b: "ADDITIONAL ASSIGNMENT",
	0x3f: "IMMEDIATE ASSIGNMENT",
	0x39: "IMMEDIATE ASSIGNMENT EXTENDED",
	0x3a: "IMMEDIATE ASSIGNMENT REJECT",
	0x48: "DTM ASSIGNMENT FAILURE",
	0x49: "DTM REJECT",
	0x4a: "DTM REQUEST",
	0x4b: "PACKET ASSIGNMENT",
	0x35: "CIPHERING MODE COMMAND",
	0x32: "CIPHERING MODE COMPLETE",
	0x30: "CONFIGURATION CHANGE COMMAND",
	0x31: "CONFIGURATION CHANGE ACK",
	0x33: "CONFIGURATION CHANGE REJECT",
	0x2e: "ASSIGNMENT COMMAND",
	0x29: "ASSIGNMENT COMPLETE",
	0x2f: "ASSIGNMENT FAILURE",
	0x2b: "HANDOVER COMMAND",
	0x2c: "HANDOVER COMPLETE",
	0x28: "HANDOVER FAILURE",
	0x2d: "PHYSICAL INFORMATION",
	0x4c: "DTM ASSIGNMENT COMMAND",
	0x08: "RR-CELL CHANGE ORDER",
	0x23: "PDCH ASSIGNMENT COMMAND",
	0x0d: "CHANNEL RELEASE",
	0x0a: "PARTIAL RELEASE",
	0x0f: "PARTIAL RELEASE COMPLETE",
	0x21: "PAGING REQUEST TYPE 1",
	0x22: "PAGING REQUEST TYPE 2",
	0x24: "PAGING REQUEST TYPE 3",
	0x27: "PAGING RESPONSE",
	0x20: "NOTIFICATION/NCH",
	0x25: "(Reserved)",
	0x26: "NOTIFICATION/RESPONSE",
	0x4e: "PACKET NOTIFICATION",
	0x60: "UTRAN Classmark Change",
	0x62: "cdma 2000 Classmark Change",
	0x63: "Inter System to UTRAN Handover Command",
	0x64: "Inter System to cdma2000 Handover Command",
	0x18: "SYSTEM INFORMATION TYPE 8",
	0x19: "SYSTEM INFORMATION TYPE 1",
	0x1a: "SYSTEM INFORMATION TYPE 2",
	0x1b: "SYSTEM INFORMATION TYPE 3",
	0x1c: "SYSTEM INFORMATION TYPE 4",
	0x1d: "SYSTEM INFORMATION TYPE 5",
	0x1e: "SYSTEM INFORMATION TYPE 6",
	0x1f: "SYSTEM INFORMATION TYPE 7",
	0x02: "SYSTEM INFORMATION TYPE 2bis",
	0x03: "SYSTEM INFORMATION TYPE 2ter",
	0x07: "SYSTEM INFORMATION TYPE 2quater",
	0x05: "SYSTEM INFORMATION TYPE 5bis",
	0x06: "SYSTEM INFORMATION TYPE 5ter",
	0x04: "SYSTEM INFORMATION TYPE 9",
	0x00: "SYSTEM INFORMATION TYPE 13",
	0x3d: "SYSTEM INFORMATION TYPE 16",
	0x3e: "SYSTEM INFORMATION TYPE 17",
	0x40: "SYSTEM INFORMATION TYPE 18",
	0x41: "SYSTEM INFORMATION TYPE 19",
	0x42: "SYSTEM INFORMATION TYPE 20",
	0x10: "CHANNEL MODE MODIFY",
	0x12: "RR STATUS",
	0x17: "CHANNEL MODE MODIFY ACKNOWLEDGE",
	0x14: "FREQUENCY REDEFINITION",
	0x15: "MEASUREMENT REPORT",
	0x16: "CLASSMARK CHANGE",
	0x13: "CLASSMARK ENQUIRY",
	0x36: "EXTENDED MEASUREMENT REPORT",
	0x37: "EXTENDED MEASUREMENT ORDER",
	0x34: "GPRS SUSPENSION REQUEST",
	0x4d: "DTM INFORMATION",
	0x09: "VGCS UPLINK GRANT",
	0x0e: "UPLINK RELEASE",
	0x0c: "UPLINK FREE",
	0x2a: "UPLINK BUSY",
	0x11: "TALKER INDICATION",
	0x38: "Application Information",
}

// RRMsgName names a radio resource message type.
func RRMsgName(t uint8) string { return valueName(rrMsgNames, t) }

// DTAP protocol discriminators (low nibble of the first octet).
const (
	PDCallControl uint8 = 0x03
	PDMobility    uint8 = 0x05
	PDRadio       uint8 = 0x06
	PDSMS         uint8 = 0x09
	PDSupplSvc    uint8 = 0x0b
)

var amrTypeNames = map[uint8]string{
	0:  "AMR 4,75 kbits/s",
	1:  "AMR 5,15 kbit/s",
	2:  "AMR 5,90 kbit/s",
	3:  "AMR 6,70 kbit/s (PDC-EFR)",
	4:  "AMR 7,40 kbit/s (TDMA-EFR)",
	5:  "AMR 7,95 kbit/s",
	6:  "AMR 10,2 kbit/s",
	7:  "AMR 12,2 kbit/s (GSM-EFR)",
	8:  "AMR SID",
	9:  "GSM-EFR SID",
	10: "TDMA-EFR SID",
	11: "PDC-EFR SID",
	15: "No Data/NA",
}

// AMRTypeName names an AMR frame type.
func AMRTypeName(ft uint8) string { return valueName(amrTypeNames, ft) }

var rrCauses = map[uint8]string{
	0x00: "Normal event",
	0x01: "Abnormal release, unspecified",
	0x02: "Abnormal release, channel unacceptable",
	0x03: "Abnormal release, timer expired",
	0x04: "Abnormal release, no activity on radio path",
	0x05: "Preemptive release",
	0x06: "UTRAN configuration unknown",
	0x08: "Handover impossible, timing advance out of range",
	0x09: "Channel mode unacceptable",
	0x0a: "Frequency not implemented",
	0x0b: "Originator or talker leaving group call area",
	0x0c: "Lower layer failure",
	0x41: "Call already cleared",
	0x5f: "Semantically incorrect message",
	0x60: "Invalid mandatory information",
	0x61: "Message type non-existent or not implemented",
	0x62: "Message type not compatible with protocol state",
	0x64: "Conditional IE error",
	0x65: "No cell allocation available",
	0x6f: "Protocol error unspecified",
}

// RRCauseName names a radio resource cause value.
func RRCauseName(c uint8) string { return valueName(rrCauses, c) }

var channelModes = map[uint8]string{
	0x00: "Signalling Only",
	0x01: "Speech Full Rate or Half Rate Version 1 (GSM FR or GSM HR)",
	0xc1: "Speech Full Rate or Half Rate Version 1 (GSM FR or GSM HR) in VAMOS mode",
	0x21: "Speech Full Rate or Half Rate Version 2 (GSM EFR)",
	0xc2: "Speech Full Rate or Half Rate Version 2 (GSM EFR) in VAMOS mode",
	0x41: "Speech Full Rate or Half Rate Version 3 (FR AMR or HR AMR)",
	0xc3: "Speech Full Rate or Half Rate Version 3 (FR AMR or HR AMR) in VAMOS mode",
	0x81: "Speech Full Rate or Half Rate Version 4 (OFR AMR-WB or OHR AMR-WB)",
	0x82: "Speech Full Rate or Half Rate Version 5 (FR AMR-WB)",
	0xc5: "Speech Full Rate or Half Rate Version 5 (FR AMR-WB) in VAMOS mode",
	0x83: "Speech Full Rate or Half Rate Version 6 (OHR AMR)",
	0x61: "Data, 43.5 Kbit/s (downlink) + 14.5 kbps (Uplink)",
	0x62: "Data, 29.0 Kbit/s (downlink) + 14.5 kbps (Uplink)",
	0x64: "Data, 43.5 Kbit/s (downlink) + 29.0 kbps (Uplink)",
	0x67: "Data, 14.5 Kbit/s (downlink) + 43.5 kbps (Uplink)",
	0x65: "Data, 14.5 Kbit/s (downlink) + 29.0 kbps (Uplink)",
	0x66: "Data, 29.0 Kbit/s (downlink) + 43.5 kbps (Uplink)",
	0x27: "Data, 43.5 Kbit/s Radio Interface Rate",
	0x63: "Data, 32.0 Kbit/s Radio Interface Rate",
	0x43: "Data, 29.0 Kbit/s Radio Interface Rate",
	0x0f: "Data, 14.5 Kbit/s Radio Interface Rate",
	0x03: "Data, 12.0 Kbit/s Radio Interface Rate",
	0x0b: "Data, 6.0 Kbit/s Radio Interface Rate",
	0x13: "Data, 3.6 Kbit/s Radio Interface Rate",
}

var channelModes2 = map[uint8]string{
	0x00: "Signalling Only",
	0x05: "Speech Half Rate Version 1 (GSM HR)",
	0x25: "Speech Half Rate Version 2 (GSM EFR)",
	0x45: "Speech Half Rate Version 3 (HR AMR)",
	0x85: "Speech Half Rate Version 4 (OHR AMR-WB)",
	0x06: "Speech Half Rate Version 6 (OHR AMR)",
	0x0f: "Data, 6.0 Kbit/s Radio Interface Rate",
	0x17: "Data, 3.6 Kbit/s Radio Interface Rate",
}

// ChannelModeName describes a Channel Mode octet, or "" for reserved values.
func ChannelModeName(m uint8) string { return channelModes[m] }

// ChannelMode2Name describes a Channel Mode 2 octet, or "" for reserved values.
func ChannelMode2Name(m uint8) string { return channelModes2[m] }
