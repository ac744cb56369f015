// Copyright 2026 The packetlab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tipc implements a passive decoder for the TIPC (Transparent
// Inter-Process Communication) cluster-messaging wire protocol. It covers
// the legacy v1 header format and the v2/v2.x (TIPC 1.6/1.7) format with
// its internal sub-protocols: link control, broadcast maintenance, name
// distribution, message bundling, fragmentation, neighbour discovery,
// connection management, route distribution and changeover.
//
// The decoder is read-only. It never builds messages, never enforces
// protocol correctness, and performs no network I/O.
package tipc

// Wire-format constants common to both header versions.
const (
	// Word 0 bit layout. The version, user and header-size fields sit at
	// the same positions in v1 and v2; the four bits below the header
	// size are reserved in v1 and carry per-message flags in v2.
	VersionShift = 29
	VersionMask  = 0x7
	UserShift    = 25
	UserMask     = 0xf
	HdrSizeShift = 21
	HdrSizeMask  = 0xf

	// Message size is the total message length in bytes, header included.
	MsgSizeMask = 0x1ffff

	// v2 word 0 flag bits. Droppable/SYN bits exist on payload messages
	// only; internal protocol messages keep them reserved.
	NonSequencedBit = 20
	DestDropBit     = 19
	SrcDropBit      = 18
	SynBit          = 17

	// Maximum header size in 32-bit words.
	MaxHeaderWords = 15

	// Short-form header: header sizes up to 6 words carry no optional
	// words, the payload begins immediately after the declared header.
	ShortHeaderWords = 6

	// Maximum nesting depth for bundled and reassembled messages within
	// one top-level decode.
	MaxRecursionDepth = 10
)

// Version is the 3-bit protocol version from word 0.
type Version uint8

const (
	Version1 Version = 1 // TIPC 1.5, legacy header format
	Version2 Version = 2 // TIPC 1.6/1.7
)

// String returns the version as rendered in summaries.
func (v Version) String() string {
	switch v {
	case Version1:
		return "TIPCv1"
	case Version2:
		return "TIPCv2"
	default:
		return "TIPC (unknown version)"
	}
}

// User is the 4-bit user (sub-protocol) id from word 0. The numeric space
// is version-specific: the same code names different sub-protocols under
// v1 and v2, so every lookup takes the version as well.
type User uint8

// v2 user ids.
const (
	UserDataLow           User = 0 // payload, low importance
	UserDataNormal        User = 1 // payload, normal importance
	UserDataHigh          User = 2 // payload, high importance
	UserDataNonRejectable User = 3 // payload, non-rejectable
	UserBcastProtocol     User = 5 // broadcast link maintenance
	UserMsgBundler        User = 6 // message bundling
	UserLinkProtocol      User = 7 // link state control
	UserConnManager       User = 8 // connection supervision
	UserRouteDistributor  User = 9 // route distribution (TIPC 1.7)
	UserChangeover        User = 10
	UserNameDistributor   User = 11
	UserMsgFragmenter     User = 12
	UserLinkConfig        User = 13 // neighbour discovery
)

// v1 user ids.
const (
	UserV1DataPrio0         User = 0
	UserV1DataPrio1         User = 1
	UserV1DataPrio2         User = 2
	UserV1DataNonRejectable User = 3
	UserV1RoutingManager    User = 8
	UserV1NameDistributor   User = 9
	UserV1ConnManager       User = 10
	UserV1LinkProtocol      User = 11
	UserV1Changeover        User = 13
	UserV1SegmentationMgr   User = 14
	UserV1MsgBundler        User = 15
)

var v2UserNames = map[User]string{
	UserDataLow:           "Low Priority Payload",
	UserDataNormal:        "Normal Priority Payload",
	UserDataHigh:          "High Priority Payload",
	UserDataNonRejectable: "Non-Rejectable Payload",
	UserBcastProtocol:     "Broadcast Maintenance Protocol",
	UserMsgBundler:        "Message Bundler",
	UserLinkProtocol:      "Link State Protocol",
	UserConnManager:       "Connection Manager",
	UserRouteDistributor:  "Route Distributor",
	UserChangeover:        "Changeover Protocol",
	UserNameDistributor:   "Name Distributor",
	UserMsgFragmenter:     "Message Fragmenter",
	UserLinkConfig:        "Neighbour Discovery",
}

var v1UserNames = map[User]string{
	UserV1DataPrio0:         "Data Priority 0",
	UserV1DataPrio1:         "Data Priority 1",
	UserV1DataPrio2:         "Data Priority 2",
	UserV1DataNonRejectable: "Data Non-Rejectable",
	UserV1RoutingManager:    "Routing Manager",
	UserV1NameDistributor:   "Name Distributor",
	UserV1ConnManager:       "Connection Manager",
	UserV1LinkProtocol:      "Link Protocol",
	UserV1Changeover:        "Changeover Protocol",
	UserV1SegmentationMgr:   "Segmentation Manager",
	UserV1MsgBundler:        "Message Bundler",
}

// UserName renders a user id under the given version.
func UserName(v Version, u User) string {
	var name string
	var ok bool
	switch v {
	case Version1:
		name, ok = v1UserNames[u]
	default:
		name, ok = v2UserNames[u]
	}
	if !ok {
		return "Unknown User"
	}
	return name
}

// isV2Data reports whether a v2 user id carries application payload
// rather than internal protocol state.
func isV2Data(u User) bool {
	return u <= UserDataNonRejectable
}

// isV1Data reports the same for v1 user ids.
func isV1Data(u User) bool {
	return u <= UserV1DataNonRejectable
}

// Payload message types (word 1), shared by v1 and v2 data messages.
const (
	MTypeConnMsg   = 0 // connection-oriented message
	MTypeMcastMsg  = 1 // multicast to a name sequence range
	MTypeNamedMsg  = 2 // addressed by port name
	MTypeDirectMsg = 3 // addressed by port identity
)

// Link state protocol message types.
const (
	MTypeLinkReset    = 1
	MTypeLinkActivate = 2
	MTypeLinkState    = 3
)

// Changeover protocol message types.
const (
	MTypeDuplicateMsg = 0
	MTypeOriginalMsg  = 1
)

// Name distributor message types.
const (
	MTypePublication = 0
	MTypeWithdrawal  = 1
)

// Connection manager message types.
const (
	MTypeConnProbe      = 0
	MTypeConnProbeReply = 1
	MTypeConnAck        = 2
)

// Fragmenter message types. A v2 fragment stream is opened by a first
// fragment and closed by a last fragment; completion of the group is
// keyed off the last-fragment type, not off a count.
const (
	MTypeFirstFragment = 0
	MTypeFragment      = 1
	MTypeLastFragment  = 2
)

// v1 segmentation message types. There is no last-segment marker; the
// first segment's embedded message header declares the total length.
const (
	MTypeFirstSegment = 1
	MTypeSegment      = 2
)

// Neighbour discovery message types.
const (
	MTypeDiscRequest = 0
	MTypeDiscReply   = 1
)

// Broadcast maintenance message types.
const (
	MTypeBcastState = 0
)

// Bundler message types.
const (
	MTypeMessageBundle = 0
)

// Routing table message types (v1 routing manager, v2 route distributor).
const (
	MTypeExtRoutingTable   = 0
	MTypeLocalRoutingTable = 1
	MTypeDistRoutingTable  = 2
)

var dataTypeNames = map[uint32]string{
	MTypeConnMsg:   "Connected Message",
	MTypeMcastMsg:  "Multicast Message",
	MTypeNamedMsg:  "Named Message",
	MTypeDirectMsg: "Direct Message",
}

var linkProtoTypeNames = map[uint32]string{
	MTypeLinkReset:    "Reset Message",
	MTypeLinkActivate: "Activate Message",
	MTypeLinkState:    "State Message",
}

var changeoverTypeNames = map[uint32]string{
	MTypeDuplicateMsg: "Duplicate Message",
	MTypeOriginalMsg:  "Original Message",
}

var nameDistTypeNames = map[uint32]string{
	MTypePublication: "Publication",
	MTypeWithdrawal:  "Withdrawal",
}

var connMgrTypeNames = map[uint32]string{
	MTypeConnProbe:      "Connection Probe",
	MTypeConnProbeReply: "Connection Probe Reply",
	MTypeConnAck:        "Connection Ack",
}

var fragmenterTypeNames = map[uint32]string{
	MTypeFirstFragment: "First Fragment",
	MTypeFragment:      "Fragment",
	MTypeLastFragment:  "Last Fragment",
}

var segmentationTypeNames = map[uint32]string{
	MTypeFirstSegment: "First Segment",
	MTypeSegment:      "Segment",
}

var discoveryTypeNames = map[uint32]string{
	MTypeDiscRequest: "Link Request",
	MTypeDiscReply:   "Link Response",
}

var bcastTypeNames = map[uint32]string{
	MTypeBcastState: "Broadcast State",
}

var bundlerTypeNames = map[uint32]string{
	MTypeMessageBundle: "Message Bundle",
}

var routingTypeNames = map[uint32]string{
	MTypeExtRoutingTable:   "External Routing Table",
	MTypeLocalRoutingTable: "Local Routing Table",
	MTypeDistRoutingTable:  "Distributor Routing Table",
}

// MessageTypeName renders the 3-bit word 1 message type for a user. The
// bit position is fixed; the value table is scoped by the user.
func MessageTypeName(v Version, u User, mtype uint32) string {
	var table map[uint32]string
	switch {
	case v == Version1 && isV1Data(u), v == Version2 && isV2Data(u):
		table = dataTypeNames
	case v == Version1:
		switch u {
		case UserV1LinkProtocol:
			table = linkProtoTypeNames
		case UserV1Changeover:
			table = changeoverTypeNames
		case UserV1NameDistributor:
			table = nameDistTypeNames
		case UserV1ConnManager:
			table = connMgrTypeNames
		case UserV1SegmentationMgr:
			table = segmentationTypeNames
		case UserV1RoutingManager:
			table = routingTypeNames
		case UserV1MsgBundler:
			table = bundlerTypeNames
		}
	default:
		switch u {
		case UserLinkProtocol:
			table = linkProtoTypeNames
		case UserChangeover:
			table = changeoverTypeNames
		case UserNameDistributor:
			table = nameDistTypeNames
		case UserConnManager:
			table = connMgrTypeNames
		case UserMsgFragmenter:
			table = fragmenterTypeNames
		case UserLinkConfig:
			table = discoveryTypeNames
		case UserRouteDistributor:
			table = routingTypeNames
		case UserBcastProtocol:
			table = bcastTypeNames
		case UserMsgBundler:
			table = bundlerTypeNames
		}
	}
	if table != nil {
		if name, ok := table[mtype]; ok {
			return name
		}
	}
	return "Unknown Type"
}

// Error codes carried by rejected payload messages (word 1).
const (
	ErrCodeOK           = 0
	ErrCodeNoPortName   = 1
	ErrCodeNoRemotePort = 2
	ErrCodeNoRemoteNode = 3
	ErrCodeDestOverload = 4
	ErrCodeConnShutdown = 6
	ErrCodeCommsError   = 7
)

var errCodeNames = map[uint32]string{
	ErrCodeOK:           "OK",
	ErrCodeNoPortName:   "No Port Name",
	ErrCodeNoRemotePort: "No Remote Port",
	ErrCodeNoRemoteNode: "No Remote Processor",
	ErrCodeDestOverload: "Destination Overloaded",
	ErrCodeConnShutdown: "Connection Shutdown",
	ErrCodeCommsError:   "Communication Error",
}

// ErrorCodeName renders a word 1 error code.
func ErrorCodeName(code uint32) string {
	if name, ok := errCodeNames[code]; ok {
		return name
	}
	return "Unknown Error"
}

// Name distribution scope values (TIPC 1.7 records).
const (
	ScopeZone    = 1
	ScopeCluster = 2
	ScopeNode    = 3
)

var scopeNames = map[uint32]string{
	ScopeZone:    "Zone Scope",
	ScopeCluster: "Cluster Scope",
	ScopeNode:    "Node Scope",
}

// ScopeName renders a publication scope value.
func ScopeName(scope uint32) string {
	if name, ok := scopeNames[scope]; ok {
		return name
	}
	return "Unknown Scope"
}

// Profile selects how ambiguous v2 header variants are interpreted. TIPC
// 1.7 kept the numeric user codes of 1.6 but reassigned several reserved
// header words, so the same bytes decode differently per revision. The
// profile is read-only configuration for the lifetime of a decoder and is
// never mutated mid-decode.
type Profile uint8

const (
	// ProfileAll decodes both 1.6 and 1.7 interpretations where they can
	// coexist, preferring 1.7 field assignments for reassigned words.
	ProfileAll Profile = iota
	// ProfileV16 decodes strictly as TIPC 1.5/1.6.
	ProfileV16
	// ProfileV17 decodes strictly as TIPC 1.7.
	ProfileV17
)

// String returns the configuration spelling of the profile.
func (p Profile) String() string {
	switch p {
	case ProfileV16:
		return "1.6"
	case ProfileV17:
		return "1.7"
	default:
		return "all"
	}
}

// ParseProfile converts a configuration string into a Profile.
func ParseProfile(s string) (Profile, bool) {
	switch s {
	case "all", "":
		return ProfileAll, true
	case "1.6", "v1.6":
		return ProfileV16, true
	case "1.7", "v1.7":
		return ProfileV17, true
	}
	return ProfileAll, false
}

// sees17 reports whether the profile interprets TIPC 1.7 field
// assignments for reassigned header words.
func (p Profile) sees17() bool {
	return p == ProfileAll || p == ProfileV17
}
