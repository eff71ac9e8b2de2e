package badge

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// Receiver is implemented by programmable recipients of badge transfers. A
// safe transfer only succeeds when the callback returns AckMarker.
type Receiver interface {
	OnBadgeReceived(operator, from [20]byte, id uint64, data []byte) ([4]byte, error)
}

// ReceiverResolver maps an address to its Receiver implementation. Returning
// nil marks the address as a plain recipient that accepts without a callback.
type ReceiverResolver func(addr [20]byte) Receiver

// AckMarker is the fixed acceptance value a Receiver must return.
var AckMarker = computeAckMarker()

func computeAckMarker() [4]byte {
	var marker [4]byte
	digest := ethcrypto.Keccak256([]byte("onBadgeReceived(address,address,uint256,bytes)"))
	copy(marker[:], digest[:4])
	return marker
}
