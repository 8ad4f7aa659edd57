// Package bench 实现吞吐量基准工具
//
// 三个工具都不涉及认证和槽位，只用于压测网络路径：
//
//   - pong：对每个 4 字节 "ping" 回复 "pong"
//   - ping：闭环负载生成器，多个独立 worker 各自按组打开连接，
//     每个连接往返 repeat 次后关闭，整组完成后开始下一组
//   - echo：把收到的数据原样输出到 stdout
//
// 工具使用 tcp.PlainOptions，不设置接收低水位。
package bench
