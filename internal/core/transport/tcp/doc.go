// Package tcp 实现心跳连接使用的 TCP 传输
//
// 心跳协议在每个方向上只有独立的 16 字节帧，且同一时刻每个方向最多一帧在途。
// 传输层据此对套接字做如下调优（两端一致）：
//
//   - SO_RCVLOWAT = 16：读调用只在整帧到达后返回
//   - SO_RCVBUF = SO_SNDBUF = 24：约 1.5 帧，刻意取小
//   - TCP keepalive（客户端）：idle 60s、interval 3s、count 20，仅作存活提示
//
// Linux 上通过 golang.org/x/sys/unix 直接设置；其它平台尽力通过
// net.TCPConn 的缓冲区与 keepalive 设置近似，接收低水位不可用。
//
// # 使用示例
//
//	t := tcp.NewTransport(tcp.DefaultOptions())
//	defer t.Close()
//
//	// 监听
//	l, err := t.Listen("0.0.0.0:7000")
//
//	// 拨号
//	conn, err := t.Dial(ctx, "203.0.113.1:7000")
//
// Transport.Close 关闭其创建的所有监听器和连接。
package tcp
