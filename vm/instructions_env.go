package vm

import (
	"github.com/eth2030/zkcore/cryptoutil"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

func addressToWord(a [20]byte) *word.Word { return word.FromBytes(a[:]) }
func hashToWord(h [32]byte) *word.Word    { return word.FromBytes(h[:]) }

func opAddress(ec *execContext) error {
	return ec.Frame.Stack.Push(addressToWord(ec.Frame.Address))
}

func opBalance(ec *execContext) error {
	addrWord, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpBalance, 1)
	return ec.Frame.Stack.Push(ec.Env.Balance(wordToAddress(addrWord)))
}

func opOrigin(ec *execContext) error {
	return ec.Frame.Stack.Push(addressToWord(ec.Frame.Origin))
}

func opCaller(ec *execContext) error {
	return ec.Frame.Stack.Push(addressToWord(ec.Frame.CallerAddress))
}

func opCallValue(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Frame.Value))
}

// readCallData copies size bytes of calldata starting at offset, reading
// bytes past the end as zero. An offset at or past the end of calldata goes
// through the same copy routine as any other (with an empty source range),
// not an early zero return.
func readCallData(calldata []byte, offset, size uint64) []byte {
	out := make([]byte, size)
	if offset > uint64(len(calldata)) {
		offset = uint64(len(calldata))
	}
	end := offset + size
	if end > uint64(len(calldata)) {
		end = uint64(len(calldata))
	}
	copy(out, calldata[offset:end])
	return out
}

func opCallDataLoad(ec *execContext) error {
	offW, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCalldataLoad, 1)
	if offW.BitLen() > 63 {
		return ec.Frame.Stack.Push(word.Zero())
	}
	return ec.Frame.Stack.Push(word.FromBytes(readCallData(ec.Frame.Input, offW.Uint64(), 32)))
}

func opCallDataSize(ec *execContext) error {
	return ec.Frame.Stack.Push(word.FromUint64(uint64(len(ec.Frame.Input))))
}

func opCallDataCopy(ec *execContext) error {
	destOff, _ := ec.Frame.Stack.Pop()
	offset, _ := ec.Frame.Stack.Pop()
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCalldataCopy, size.Uint64())
	if size.IsZero() {
		return nil
	}
	data := readCallData(ec.Frame.Input, offset.Uint64(), size.Uint64())
	ec.Frame.Memory.Set(destOff.Uint64(), size.Uint64(), data)
	return nil
}

func opCodeSize(ec *execContext) error {
	return ec.Frame.Stack.Push(word.FromUint64(uint64(len(ec.Frame.Code))))
}

func opCodeCopy(ec *execContext) error {
	destOff, _ := ec.Frame.Stack.Pop()
	offset, _ := ec.Frame.Stack.Pop()
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCodeCopy, size.Uint64())
	if size.IsZero() {
		return nil
	}
	data := readCallData(ec.Frame.Code, offset.Uint64(), size.Uint64())
	ec.Frame.Memory.Set(destOff.Uint64(), size.Uint64(), data)
	return nil
}

func opGasPrice(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Frame.GasPrice))
}

func opExtCodeSize(ec *execContext) error {
	addrWord, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpExtcodeSize, 1)
	return ec.Frame.Stack.Push(word.FromUint64(uint64(ec.Env.CodeSize(wordToAddress(addrWord)))))
}

func opExtCodeCopy(ec *execContext) error {
	addrWord, _ := ec.Frame.Stack.Pop()
	destOff, _ := ec.Frame.Stack.Pop()
	offset, _ := ec.Frame.Stack.Pop()
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpExtcodeCopy, size.Uint64())
	if size.IsZero() {
		return nil
	}
	code := ec.Env.CodeAt(wordToAddress(addrWord))
	data := readCallData(code, offset.Uint64(), size.Uint64())
	ec.Frame.Memory.Set(destOff.Uint64(), size.Uint64(), data)
	return nil
}

func opReturnDataSize(ec *execContext) error {
	return ec.Frame.Stack.Push(word.FromUint64(uint64(len(ec.Frame.LastReturnData))))
}

func opReturnDataCopy(ec *execContext) error {
	destOff, _ := ec.Frame.Stack.Pop()
	offset, _ := ec.Frame.Stack.Pop()
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpReturndataCopy, size.Uint64())
	if offset.BitLen() > 63 || size.BitLen() > 63 || offset.Uint64()+size.Uint64() > uint64(len(ec.Frame.LastReturnData)) {
		return trap.New(trap.OutOfRange)
	}
	if size.IsZero() {
		return nil
	}
	data := ec.Frame.LastReturnData[offset.Uint64() : offset.Uint64()+size.Uint64()]
	ec.Frame.Memory.Set(destOff.Uint64(), size.Uint64(), data)
	return nil
}

// opExtCodeHash hashes the target's bytecode with Poseidon, not Keccak —
// this module's zk-proving-friendly digest.
func opExtCodeHash(ec *execContext) error {
	addrWord, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	addr := wordToAddress(addrWord)
	ec.VCM.Record(vcm.OpExtcodeHash, 1)
	if !ec.Env.Exists(addr) {
		return ec.Frame.Stack.Push(word.Zero())
	}
	code := ec.Env.CodeAt(addr)
	return ec.Frame.Stack.Push(word.FromBytes(cryptoutil.PoseidonBytecodeHash(code)))
}

func opBlockHash(ec *execContext) error {
	n, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpBlockInfo, 1)
	if !n.IsUint64() {
		return ec.Frame.Stack.Push(word.Zero())
	}
	h := ec.Env.BatchHash(n.Uint64())
	if h.IsZero() {
		return ec.Frame.Stack.Push(word.Zero())
	}
	return ec.Frame.Stack.Push(hashToWord(h))
}

func opCoinbase(ec *execContext) error {
	return ec.Frame.Stack.Push(addressToWord(ec.Env.Coinbase()))
}

func opTimestamp(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Env.Timestamp()))
}

func opNumber(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Env.BlockNumber()))
}

func opPrevRandao(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Env.Difficulty()))
}

func opGasLimit(ec *execContext) error {
	return ec.Frame.Stack.Push(word.FromUint64(ec.Env.GasLimit()))
}

func opChainID(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Env.ChainID()))
}

func opSelfBalance(ec *execContext) error {
	return ec.Frame.Stack.Push(ec.Env.Balance(ec.Frame.Address))
}

func opBaseFee(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Env.BaseFee()))
}

func opBlobHash(ec *execContext) error {
	_, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	// Blob-carrying transactions are out of this module's scope; the
	// index is consumed and zero is pushed.
	return ec.Frame.Stack.Push(word.Zero())
}

func opBlobBaseFee(ec *execContext) error {
	return ec.Frame.Stack.Push(new(word.Word).Set(ec.Env.BlobBaseFee()))
}
