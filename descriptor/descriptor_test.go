package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDescriptorRecognizesMarkers(t *testing.T) {
	assert.True(t, IsDescriptor(`release 8;\ndatawindow(...)`))
	assert.True(t, IsDescriptor(`datawindow(units=0 )`))
	assert.False(t, IsDescriptor(`event save()\nend event`))
}

func TestParseExtractsRetrieveAndUpdate(t *testing.T) {
	src := `release 8;
datawindow(units=0 )
table(column=(type=char(10) name=a))
retrieve="SELECT x FROM tb_a JOIN tb_b ON tb_a.id = tb_b.id"
update="tb_a"`

	pdw := Parse("dw_a.dw", src)
	assert.Equal(t, "dw_a", pdw.ObjectName)
	assert.Equal(t, "dw_a", pdw.DWName)
	assert.Equal(t, "tb_a", pdw.BaseTable)
	assert.Contains(t, pdw.SqlSelect, "FROM tb_a JOIN tb_b")
}

func TestParseWithoutRetrieveOrUpdateYieldsObjectOnly(t *testing.T) {
	pdw := Parse("dw_b.dw", "release 8;\ndatawindow(units=0)")
	assert.Equal(t, "dw_b", pdw.ObjectName)
	assert.Empty(t, pdw.SqlSelect)
	assert.Empty(t, pdw.BaseTable)
}

func TestParseUnescapesDoubledQuotes(t *testing.T) {
	pdw := Parse("dw_c.dw", `retrieve="a is ""x"" here"`)
	assert.Equal(t, `a is "x" here`, pdw.SqlSelect)
}
