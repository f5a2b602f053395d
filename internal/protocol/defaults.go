package protocol

import "github.com/ethereum/go-ethereum/common"

// Defaults used when no protocol version is configured.
var (
	DefaultVersionID    = LatestVersionID
	DefaultVersionPatch = VersionPatch(2)

	DefaultHashes = VKHashes{
		Scheduler:   common.HexToHash("0x14f97b81e54b35fe673d8708cc1a19e1ea5b5e348e12d31e39824ed4f42bbca2"),
		Node:        common.HexToHash("0xf520cd5b37e74e19fdb369c8d676a04dce8a19457497ac6686d2bb95d94109c8"),
		Leaf:        common.HexToHash("0xf9664f4324c1400fa5c3822d667f30e873f53f1b8033180cd15fe41c1e2355c6"),
		CircuitsSet: common.Hash{},
	}
)
