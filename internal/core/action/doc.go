// Package action 实现客户端的外部动作调用
//
// 客户端从服务端得知新的公网 IPv4 地址后，通过外部动作把它传播出去
// （例如更新 DNS）。支持两种动作：
//
//   - ExecInvoker：运行 `<command> <dotted-ipv4>`，退出码 0 为成功
//   - DNSUpdateInvoker：发送 RFC 2136 动态更新，替换 A 记录
//
// Retrier 包装任意 Invoker：失败后等待固定间隔重试，直到成功。
// 无法启动外部命令（ErrSpawn）是致命错误，不重试，由调用方终止进程。
package action
