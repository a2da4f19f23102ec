package vm

import (
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
)

// makeLog returns the executionFunc for LOG<n>: pop offset, size, then n
// topics, and emit them through the environment.
func makeLog(n int) executionFunc {
	return func(ec *execContext) error {
		if ec.Frame.IsStatic {
			return trap.New(trap.StaticStateChange)
		}
		offset, _ := ec.Frame.Stack.Pop()
		size, err := ec.Frame.Stack.Pop()
		if err != nil {
			return err
		}
		topics := make([]eei.Hash, n)
		for i := 0; i < n; i++ {
			t, err := ec.Frame.Stack.Pop()
			if err != nil {
				return err
			}
			topics[i] = eei.Hash(t.Bytes32())
		}
		ec.VCM.Record(vcm.OpLog, size.Uint64())
		var data []byte
		if !size.IsZero() {
			if offset.BitLen() > 63 || size.BitLen() > 63 {
				return trap.New(trap.OutOfRange)
			}
			data = make([]byte, size.Uint64())
			copy(data, ec.Frame.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64())))
		}
		ec.Env.Log(topics, data)
		return nil
	}
}
