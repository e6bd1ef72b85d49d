package shader

// TerrainVertex is the base terrain vertex stage.
const TerrainVertex = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec2 aTexCoord;

uniform mat4 uMVP;

out vec2 vTexCoord;

void main() {
    vTexCoord = aTexCoord;
    gl_Position = uMVP * vec4(aPosition, 1.0);
}
`

// TerrainFragment is the base terrain fragment stage. Effects switch on their
// sampler through the HAS_ defines the header adds.
const TerrainFragment = `#version 410 core
in vec2 vTexCoord;

uniform sampler2D uColor;

out vec4 FragColor;

void main() {
    vec4 color = texture(uColor, vTexCoord);
#ifdef HAS_OE_NORMAL_MAP
    vec3 n = texture(oe_normal_map, vTexCoord).xyz * 2.0 - 1.0;
    color.rgb *= max(n.y, 0.2);
#endif
#ifdef HAS_OE_LIGHTMAP
    color.rgb *= texture(oe_lightmap, vTexCoord).a;
#endif
    FragColor = color;
}
`
