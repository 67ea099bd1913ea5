// Package xconf 基于 koanf 加载 YAML/JSON 配置文件。
//
// 推荐用法是先构造带默认值的结构体，再用 Unmarshal 覆盖配置中出现的键：
//
//	cfg := xsession.DefaultConfig()
//	c, err := xconf.New("quanta.yaml")
//	if err != nil {
//		return err
//	}
//	if err := c.Unmarshal("quanta", &cfg); err != nil {
//		return err
//	}
package xconf
