// Package keepalive 组装心跳服务端与客户端应用
//
// 客户端位于公网地址可能变化的网络中，定期用共享口令派生的密钥向
// 汇合服务器证明身份。服务器按槽位记录每个客户端最近的 IP，发现变化时
// 通知客户端，客户端再执行外部动作（命令或 DNS 更新）传播新地址。
//
// # 快速开始
//
//	cfg := config.DefaultServerConfig()
//	cfg.Password = "secret"
//
//	app, err := keepalive.NewServer(cfg)
//	if err != nil {
//	    return err
//	}
//	code, err := app.Run(ctx)
//
// 客户端相同，使用 config.ClientConfig 与 keepalive.NewClient。
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  client.Session    拨号 → 认证 → 已建立 → 断开后固定延迟重连   │
//	│  action.Retrier    外部动作，退出码失败无限重试                │
//	├──────────────────────────────────────────────────────────────┤
//	│  server.Server     接受连接，读取认证帧                        │
//	│  slots.Table       槽位认领：最新认领者获胜，IP 变化先通知      │
//	├──────────────────────────────────────────────────────────────┤
//	│  frame             16 字节加密帧                               │
//	│  crypt             口令 → AES 密钥                             │
//	│  transport/tcp     拨号、监听、套接字调优                       │
//	└──────────────────────────────────────────────────────────────┘
//
// # 文件组织
//
//	keepalive/
//	├── keepalive.go   # 版本信息
//	├── app.go         # App：启动、停止、运行到退出
//	├── fx.go          # Fx 应用组装
//	├── options.go     # WithXxx 选项
//	└── errors.go      # 错误定义
package keepalive
