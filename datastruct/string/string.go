package mstring

// String 字符串类型接口
type String interface {
	Bytes() []byte
}

// stringEntity 字符串类型实体
type stringEntity struct {
	str []byte
}

// NewString 初始化，value 的所有权转交给实体
func NewString(value []byte) String {
	return &stringEntity{str: value}
}

// Bytes 字节转换
func (s *stringEntity) Bytes() []byte {
	return s.str
}
