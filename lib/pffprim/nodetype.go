// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package pffprim

import (
	"github.com/libpff-rec/pff-rec/lib/containers"
)

// NodeType is the low-5-bit tag of an Identifier, naming what kind of
// item the identifier refers to. The core only needs to tell
// table-bearing types apart from everything else (the decryption
// heuristic, §4.9, keys off this); the full catalog is carried here
// so higher layers (propset, the CLI) can label items without a
// second lookup table.
type NodeType uint8

const (
	NodeTypeUndefined          NodeType = 0x00
	NodeTypeInternal           NodeType = 0x01
	NodeTypeFolder             NodeType = 0x02
	NodeTypeSearchFolder       NodeType = 0x03
	NodeTypeMessage            NodeType = 0x04
	NodeTypeAttachment         NodeType = 0x05
	NodeTypeAssociatedMessage  NodeType = 0x06
	NodeTypeSearchMessage      NodeType = 0x07
	NodeTypeFolderSearchTree   NodeType = 0x08
	NodeTypeMessageStore       NodeType = 0x09
	NodeTypeAttachments        NodeType = 0x0A
	NodeTypeRecipients         NodeType = 0x0B
	NodeTypeNameToIDMap        NodeType = 0x0C
	NodeTypeLocalDescriptor    NodeType = 0x0D
	NodeTypeConfigurationItem  NodeType = 0x1F
)

var nodeTypeNames = map[NodeType]string{
	NodeTypeUndefined:         "undefined",
	NodeTypeInternal:          "internal",
	NodeTypeFolder:            "folder",
	NodeTypeSearchFolder:      "search-folder",
	NodeTypeMessage:           "message",
	NodeTypeAttachment:        "attachment",
	NodeTypeAssociatedMessage: "associated-message",
	NodeTypeSearchMessage:     "search-message",
	NodeTypeFolderSearchTree:  "folder-search-tree",
	NodeTypeMessageStore:      "message-store",
	NodeTypeAttachments:       "attachments",
	NodeTypeRecipients:        "recipients",
	NodeTypeNameToIDMap:       "name-to-id-map",
	NodeTypeLocalDescriptor:   "local-descriptor",
	NodeTypeConfigurationItem: "configuration-item",
}

func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// tableBearingTypes lists node types whose data stream is expected to
// contain a MAPI property table (6C/7C/8C/9C/AC/BC/CC signature). Used
// by the decryption heuristic, §4.9 step 3.
var tableBearingTypes = containers.NewSet(
	NodeTypeFolder,
	NodeTypeSearchFolder,
	NodeTypeMessage,
	NodeTypeAttachment,
	NodeTypeAssociatedMessage,
	NodeTypeSearchMessage,
	NodeTypeMessageStore,
	NodeTypeAttachments,
	NodeTypeRecipients,
	NodeTypeNameToIDMap,
)

// IsTableBearing reports whether items of this node type are expected
// to carry a MAPI property table in their data stream.
func (t NodeType) IsTableBearing() bool {
	return tableBearingTypes.Has(t)
}
