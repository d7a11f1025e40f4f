package problemgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "python fence",
			in:   "```python\nimport matplotlib.pyplot as plt\nplt.plot([1, 2])\n```",
			want: "import matplotlib.pyplot as plt\nplt.plot([1, 2])",
		},
		{
			name: "bare fence and whitespace",
			in:   "  ```\nplt.plot()\n```  ",
			want: "plt.plot()",
		},
		{
			name: "raw single quoted literal",
			in:   "plt.title(r'$y = \nx^2$')",
			want: "plt.title(r'$y =  x^2$')",
		},
		{
			name: "raw double quoted literal without math",
			in:   "plt.xlabel(r\"time\r\naxis\")",
			want: "plt.xlabel(r\"time axis\")",
		},
		{
			name: "plain literal with latex",
			in:   "ax.text(0, 0, \"$\\alpha\n$\")",
			want: "ax.text(0, 0, \"$\\alpha $\")",
		},
		{
			name: "plain literal without math keeps break",
			in:   "print('a\nb')",
			want: "print('a\nb')",
		},
		{
			name: "code outside literals untouched",
			in:   "x = 1\ny = 'b'\nplt.title(r'$x$')",
			want: "x = 1\ny = 'b'\nplt.title(r'$x$')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeCode(tt.in))
		})
	}
}
