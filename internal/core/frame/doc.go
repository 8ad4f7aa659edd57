// Package frame 实现心跳帧编解码
//
// 每个方向上都是相互独立、自包含的 16 字节加密帧，没有长度前缀和校验和。
// 帧方向只由标签区分：
//
//   - 客户端 → 服务端：Tag = ClientMagic，Payload = 槽位号
//   - 服务端 → 客户端：Tag = ServerTag (0)，Payload = 服务端观察到的 IPv4 地址
//
// # 编解码
//
//	buf := frame.Encode(block, frame.NewClientFrame(time.Now(), 0))
//	f, err := frame.Decode(block, buf[:])
//	if err == nil {
//	    err = f.Expect(frame.ServerTag)
//	}
//
// # 传输约定
//
// 套接字接收低水位设为 16 字节，读调用只在整帧到达后返回。
// 编解码器仍然把任何非 16 字节的读取视为错误，而不是等待更多数据。
//
// # 重放
//
// Nonce 只是发送时间，接收方不校验新鲜度，截获的帧可以被无限期重放。
// 这是面向可信私有链路的简化；在不可信网络上使用时需要额外防护。
package frame
