package mb

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/thinkgos/timing/v4"

	modbus "github.com/thinkgos/gomodbus/v3"
)

const (
	// DefaultRandValue 就绪队列满时延迟重新入队的随机上限, 单位ms
	DefaultRandValue = 50
	// DefaultReadyQueuesLength 默认就绪队列长度
	DefaultReadyQueuesLength = 256
)

// ErrInvalidFuncCode gather job function code is not a read function
var ErrInvalidFuncCode = errors.New("mb: invalid function code")

// Client 周期采集客户端, 每个客户端拥有独立的定时器
type Client struct {
	modbus.Client
	randValue      int
	readyQueueSize int
	ready          chan *Request
	wheel          *timing.Base
	handler        Handler
	panicHandle    func(err interface{})
	log            zerolog.Logger
	clientOpts     []modbus.Option
	ctx            context.Context
	cancel         context.CancelFunc
}

// Result 一次采集的参数与累计计数
type Result struct {
	SlaveID  byte
	FuncCode byte
	Address  uint16
	Quantity uint16
	ScanRate time.Duration
	TxCnt    uint64 // 累计发送次数
	ErrCnt   uint64 // 累计失败次数
}

// Request 采集任务, ScanRate为0时只采集一次
type Request struct {
	SlaveID  byte
	FuncCode byte
	Address  uint16
	Quantity uint16
	ScanRate time.Duration
	txCnt    uint64
	errCnt   uint64
	tm       *timing.Timer
}

func (sf *Request) result() *Result {
	return &Result{
		SlaveID:  sf.SlaveID,
		FuncCode: sf.FuncCode,
		Address:  sf.Address,
		Quantity: sf.Quantity,
		ScanRate: sf.ScanRate,
		TxCnt:    atomic.LoadUint64(&sf.txCnt),
		ErrCnt:   atomic.LoadUint64(&sf.errCnt),
	}
}

// New 在provider之上创建采集客户端, 调用Start后开始采集
func New(p modbus.ClientProvider, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		randValue:      DefaultRandValue,
		readyQueueSize: DefaultReadyQueuesLength,
		wheel:          timing.New(),
		handler:        &NopProc{},
		panicHandle:    func(interface{}) {},
		log:            zerolog.New(os.Stderr).With().Timestamp().Str("module", "mb").Logger(),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Client = modbus.NewClient(p, c.clientOpts...)
	c.ready = make(chan *Request, c.readyQueueSize)
	return c
}

// Start 连接并启动定时器与采集协程
func (sf *Client) Start() error {
	if err := sf.Connect(sf.ctx); err != nil {
		return err
	}
	sf.wheel.Run()
	go sf.readPoll()
	return nil
}

// Close 停止采集并关闭连接
func (sf *Client) Close() error {
	sf.cancel()
	_ = sf.wheel.Close()
	return sf.Client.Close()
}

// AddGatherJob 增加采集任务, 超出单次请求上限的数量会被拆分成多个请求
func (sf *Client) AddGatherJob(r Request) error {
	if err := sf.ctx.Err(); err != nil {
		return err
	}
	reqs, err := splitRequest(r)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		req.tm = timing.NewJobFunc(sf.enqueue(req), req.ScanRate)
		sf.wheel.Add(req.tm)
	}
	return nil
}

// splitRequest 按功能码的单次数量上限拆分请求
func splitRequest(r Request) ([]*Request, error) {
	if r.SlaveID < modbus.AddressMin || r.SlaveID > modbus.AddressMax {
		return nil, fmt.Errorf("mb: slaveID '%v' must be between '%v' and '%v': %w",
			r.SlaveID, modbus.AddressMin, modbus.AddressMax, modbus.ErrInvalidSlaveID)
	}

	var limit int
	switch r.FuncCode {
	case modbus.FuncCodeReadCoils, modbus.FuncCodeReadDiscreteInputs:
		limit = modbus.ReadBitsQuantityMax
	case modbus.FuncCodeReadInputRegisters, modbus.FuncCodeReadHoldingRegisters:
		limit = modbus.ReadRegQuantityMax
	default:
		return nil, fmt.Errorf("mb: function code '%v': %w", r.FuncCode, ErrInvalidFuncCode)
	}

	var reqs []*Request
	address := r.Address
	for remain := int(r.Quantity); remain > 0; {
		n := remain
		if n > limit {
			n = limit
		}
		reqs = append(reqs, &Request{
			SlaveID:  r.SlaveID,
			FuncCode: r.FuncCode,
			Address:  address,
			Quantity: uint16(n),
			ScanRate: r.ScanRate,
		})
		address += uint16(n)
		remain -= n
	}
	return reqs, nil
}

// enqueue 定时到期后送入就绪队列, 队列满时随机延迟重试
func (sf *Client) enqueue(req *Request) func() {
	return func() {
		select {
		case <-sf.ctx.Done():
		case sf.ready <- req:
		default:
			sf.wheel.Add(req.tm, time.Duration(rand.Intn(sf.randValue))*time.Millisecond)
		}
	}
}

func (sf *Client) readPoll() {
	for {
		select {
		case <-sf.ctx.Done():
			sf.log.Debug().Msg("read poll exit")
			return
		case req := <-sf.ready:
			sf.procRequest(req)
		}
	}
}

func (sf *Client) procRequest(req *Request) {
	defer func() {
		if err := recover(); err != nil {
			sf.panicHandle(err)
		}
	}()

	atomic.AddUint64(&req.txCnt, 1)
	err := sf.gather(req)
	if err != nil {
		atomic.AddUint64(&req.errCnt, 1)
		sf.log.Error().Err(err).
			Uint8("slaveID", req.SlaveID).
			Uint8("funcCode", req.FuncCode).
			Uint16("address", req.Address).
			Msg("gather failed")
	}
	if req.ScanRate > 0 && sf.ctx.Err() == nil {
		sf.wheel.Add(req.tm, req.ScanRate)
	}
	sf.handler.ProcResult(err, req.result())
}

// gather 执行一次读取并把数据交给handler
func (sf *Client) gather(req *Request) error {
	switch req.FuncCode {
	case modbus.FuncCodeReadCoils:
		values, err := sf.ReadCoils(sf.ctx, req.SlaveID, req.Address, req.Quantity)
		if err != nil {
			return err
		}
		sf.handler.ProcReadCoils(req.SlaveID, req.Address, req.Quantity, values)
	case modbus.FuncCodeReadDiscreteInputs:
		values, err := sf.ReadDiscreteInputs(sf.ctx, req.SlaveID, req.Address, req.Quantity)
		if err != nil {
			return err
		}
		sf.handler.ProcReadDiscretes(req.SlaveID, req.Address, req.Quantity, values)
	case modbus.FuncCodeReadHoldingRegisters:
		valBuf, err := sf.ReadHoldingRegistersBytes(sf.ctx, req.SlaveID, req.Address, req.Quantity)
		if err != nil {
			return err
		}
		sf.handler.ProcReadHoldingRegisters(req.SlaveID, req.Address, req.Quantity, valBuf)
	case modbus.FuncCodeReadInputRegisters:
		valBuf, err := sf.ReadInputRegistersBytes(sf.ctx, req.SlaveID, req.Address, req.Quantity)
		if err != nil {
			return err
		}
		sf.handler.ProcReadInputRegisters(req.SlaveID, req.Address, req.Quantity, valBuf)
	}
	return nil
}
