//go:build linux && !tinygo

package transmitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"go.uber.org/zap"
)

const (
	// RP1 southbridge is connected via PCIe on BCM2712.
	// The BAR base address is fixed by firmware at 0x1f00000000.
	rp1BarBase  int64 = 0x1f00000000
	rp1GpioBase int64 = rp1BarBase + 0xd0000
	rp1Pwm0Base int64 = rp1BarBase + 0x98000
	rp1PageSize       = 4096

	// RP1 PWM input clock is 50 MHz (from device tree assigned-clock-rates)
	rp1PwmClockHz = 50_000_000

	// RP1 GPIO register layout: each GPIO has 8 bytes (STATUS + CTRL)
	rp1GpioCtrlOffset  = 0x04
	rp1GpioRegSize     = 0x08
	rp1GpioFuncselMask = 0x1f // CTRL bits [4:0]

	// GPIO 18: funcsel 3 (a3) = PWM0_CHAN2
	rp1DataGpio         = 18
	rp1Gpio18FuncselPwm = 3
	rp1GpioFuncselNull  = 0x1f

	// RP1 PWM register offsets (byte offsets, divide by 4 for []uint32 index)
	rp1PwmGlobalCtrl = 0x00
	rp1PwmFifoCtrl   = 0x04
	rp1PwmFifoPush   = 0x08
	rp1PwmFifoLevel  = 0x0c

	// Per-channel registers: CTRL(x)=0x14+x*16, RANGE(x)=0x18+x*16
	rp1PwmChanCtrlOff  = 0x00
	rp1PwmChanRangeOff = 0x04
	rp1PwmChanPhaseOff = 0x08
	rp1PwmChanSize     = 0x10
	rp1PwmChanBase     = 0x14

	rp1PwmGlobalChanEnBit = 0  // bits [3:0] = per-channel enable
	rp1PwmGlobalSetUpdate = 31 // global set_update trigger

	rp1PwmChanCtrlModeBit    = 0
	rp1PwmChanCtrlUseFifoBit = 4
	rp1PwmModeSerializer     = 3
	rp1PwmFifoFlushBit       = 5

	// Serializer mode shifts out full 32 bit words, MSB first, one bit per
	// 20ns clock.
	rp1DataChan  = 2
	rp1DataRange = 32

	// Conservative FIFO depth assumption
	rp1FifoMax uint32 = 8
	// Slack on top of the wire time before a stalled FIFO is reported
	rp1FifoSlack = 5 * time.Millisecond
)

// pwmChanRegIdx returns the []uint32 index for a per-channel register.
func pwmChanRegIdx(channel, regOffset int) int {
	return (rp1PwmChanBase + channel*rp1PwmChanSize + regOffset) / 4
}

// rp1 drives WS281x data on GPIO 18 using the RP1 PWM0 channel 2 serializer
// (Raspberry Pi 5 / CM5).
type rp1 struct {
	channel

	devmem   *os.File
	gpioMem8 []uint8
	gpioMem  []uint32
	pwmMem8  []uint8
	pwmMem   []uint32

	raster     *ws281x.Rasterizer
	resetWords int
	words      []uint32
}

func openRP1(ctx context.Context, enc *ws281x.Encoder, latch time.Duration) (Transmitter, error) {
	raster, err := ws281x.NewRasterizer(enc.TickRate(), rp1PwmClockHz)
	if err != nil {
		return nil, err
	}
	if err := raster.Check(enc); err != nil {
		return nil, fmt.Errorf("RP1 serializer cannot reproduce the pulse timing: %w", err)
	}

	devmem, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open /dev/mem: %w", err)
	}

	gpioMem, gpioMem8, err := mmap(devmem, rp1GpioBase, rp1PageSize)
	if err != nil {
		devmem.Close()
		return nil, fmt.Errorf("failed to mmap RP1 GPIO at 0x%x: %w", rp1GpioBase, err)
	}

	pwmMem, pwmMem8, err := mmap(devmem, rp1Pwm0Base, rp1PageSize)
	if err != nil {
		syscall.Munmap(gpioMem8)
		devmem.Close()
		return nil, fmt.Errorf("failed to mmap RP1 PWM0 at 0x%x: %w", rp1Pwm0Base, err)
	}

	bitsPerLatch := (uint64(latch)*rp1PwmClockHz + uint64(time.Second) - 1) / uint64(time.Second)

	log.FromContext(ctx).Info("opened RP1 serializer", zap.Int("gpio", rp1DataGpio), zap.Int("channel", rp1DataChan))

	return &rp1{
		channel:    channel{driver: "rp1"},
		devmem:     devmem,
		gpioMem:    gpioMem,
		gpioMem8:   gpioMem8,
		pwmMem:     pwmMem,
		pwmMem8:    pwmMem8,
		raster:     raster,
		resetWords: int((bitsPerLatch + 31) / 32),
	}, nil
}

func mmap(f *os.File, base int64, size int) ([]uint32, []uint8, error) {
	mem8, err := syscall.Mmap(int(f.Fd()), base, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	mem := unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), len(mem8)/4)
	return mem, mem8, nil
}

func (r *rp1) Start(_ context.Context, buf *ws281x.PulseBuffer) (*Pending, error) {
	return r.start(buf, r.emit)
}

// setGpioFuncsel sets the function select for a GPIO pin via direct register write.
func (r *rp1) setGpioFuncsel(gpio int, funcsel uint32) {
	ctrlIdx := (gpio*rp1GpioRegSize + rp1GpioCtrlOffset) / 4
	ctrl := r.gpioMem[ctrlIdx]
	ctrl = (ctrl &^ uint32(rp1GpioFuncselMask)) | (funcsel & uint32(rp1GpioFuncselMask))
	r.gpioMem[ctrlIdx] = ctrl
}

// emit shifts the rasterised symbols out of the PWM FIFO. The channel is
// reconfigured for every frame and released afterwards so the data line stays
// quiet between frames.
func (r *rp1) emit(symbols []ws281x.Symbol) error {
	ch := rp1DataChan

	// [reset padding] [data] [trailing zeros]
	r.words = r.words[:0]
	for i := 0; i < r.resetWords; i++ {
		r.words = append(r.words, 0)
	}
	r.words = r.raster.AppendWords(r.words, symbols)
	r.words = append(r.words, 0, 0)
	data := r.words

	r.setGpioFuncsel(rp1DataGpio, rp1Gpio18FuncselPwm)
	time.Sleep(10 * time.Microsecond)

	// Disable channel
	globalCtrl := r.pwmMem[rp1PwmGlobalCtrl/4]
	globalCtrl &^= 1 << (rp1PwmGlobalChanEnBit + ch)
	r.pwmMem[rp1PwmGlobalCtrl/4] = globalCtrl
	time.Sleep(10 * time.Microsecond)

	// Serializer mode, use FIFO, low when idle
	r.pwmMem[pwmChanRegIdx(ch, rp1PwmChanCtrlOff)] =
		(rp1PwmModeSerializer << rp1PwmChanCtrlModeBit) | (1 << rp1PwmChanCtrlUseFifoBit)
	r.pwmMem[pwmChanRegIdx(ch, rp1PwmChanRangeOff)] = rp1DataRange
	r.pwmMem[pwmChanRegIdx(ch, rp1PwmChanPhaseOff)] = 0
	time.Sleep(10 * time.Microsecond)

	r.pwmMem[rp1PwmFifoCtrl/4] = 1 << rp1PwmFifoFlushBit
	time.Sleep(10 * time.Microsecond)

	globalCtrl = r.pwmMem[rp1PwmGlobalCtrl/4]
	globalCtrl |= 1 << rp1PwmGlobalSetUpdate
	r.pwmMem[rp1PwmGlobalCtrl/4] = globalCtrl
	time.Sleep(10 * time.Microsecond)

	// Pre-fill FIFO before enabling channel
	idx := 0
	for idx < len(data) && uint32(idx) < rp1FifoMax {
		r.pwmMem[rp1PwmFifoPush/4] = data[idx]
		idx++
	}

	runtime.LockOSThread()

	globalCtrl = r.pwmMem[rp1PwmGlobalCtrl/4]
	globalCtrl |= 1 << (rp1PwmGlobalChanEnBit + ch)
	r.pwmMem[rp1PwmGlobalCtrl/4] = globalCtrl

	fifoLevelReg := rp1PwmFifoLevel / 4
	fifoPushReg := rp1PwmFifoPush / 4
	wire := time.Duration(len(data)) * rp1DataRange * time.Second / rp1PwmClockHz
	deadline := time.Now().Add(wire + rp1FifoSlack)

	var err error
	for idx < len(data) {
		if time.Now().After(deadline) {
			err = fmt.Errorf("RP1 FIFO stalled after %d of %d words", idx, len(data))
			break
		}
		if r.pwmMem[fifoLevelReg] < rp1FifoMax {
			r.pwmMem[fifoPushReg] = data[idx]
			idx++
		}
	}

	for err == nil && r.pwmMem[fifoLevelReg] > 0 {
		if time.Now().After(deadline) {
			err = errors.New("RP1 FIFO did not drain")
		}
	}

	runtime.UnlockOSThread()

	// Wait for last word to finish shifting out
	time.Sleep(200 * time.Microsecond)

	globalCtrl = r.pwmMem[rp1PwmGlobalCtrl/4]
	globalCtrl &^= 1 << (rp1PwmGlobalChanEnBit + ch)
	r.pwmMem[rp1PwmGlobalCtrl/4] = globalCtrl

	// Disconnect GPIO 18 from PWM to prevent residual noise on the data line
	r.setGpioFuncsel(rp1DataGpio, rp1GpioFuncselNull)

	return err
}

func (r *rp1) Close() error {
	r.close()
	return errors.Join(
		munmapIfNonNil(r.gpioMem8),
		munmapIfNonNil(r.pwmMem8),
		r.devmem.Close(),
	)
}

func munmapIfNonNil(mem []uint8) error {
	if mem != nil {
		return syscall.Munmap(mem)
	}
	return nil
}
